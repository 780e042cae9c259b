package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format represents report format types.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatJSONL, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unsupported report format: %s", s)
}

// Write serializes r in the given format.
func Write(w io.Writer, r *Report, format Format) error {
	bw := bufio.NewWriter(w)
	var err error
	switch format {
	case FormatText, "":
		err = writeText(bw, r)
	case FormatJSON:
		enc := json.NewEncoder(bw)
		enc.SetIndent("", "  ")
		err = enc.Encode(r)
	case FormatJSONL:
		err = writeJSONL(bw, r)
	case FormatYAML:
		enc := yaml.NewEncoder(bw)
		enc.SetIndent(2)
		if err = enc.Encode(r); err == nil {
			err = enc.Close()
		}
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// writeJSONL emits one line per item followed by the summary line.
func writeJSONL(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	for _, item := range r.Items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return enc.Encode(r.Summary())
}

func writeText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Total", fmt.Sprint(r.Total)},
		{"Success", fmt.Sprint(r.Success)},
		{"Missing explanation", fmt.Sprint(r.MissingExplanation)},
		{"Missing forum", fmt.Sprint(r.MissingForum)},
		{"Errors", fmt.Sprint(r.Errors)},
		{"Elapsed", r.Elapsed.String()},
		{"Deck", r.Deck},
	}
	if r.IncludeForum {
		rows = append(rows, [2]string{"Forum", "enabled"})
	}
	if r.Stopped != "" {
		rows = append(rows, [2]string{"Stopped", r.Stopped})
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
