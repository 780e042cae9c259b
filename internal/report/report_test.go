package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &Report{Deck: "TEC::Direito", Mode: "next", IncludeForum: true, Total: 3, StartedAt: start}
	r.Add(Item{Index: 1, Status: StatusCreated, NoteID: 11, Explanation: true, Forum: true})
	r.Add(Item{Index: 2, Status: StatusCreated, NoteID: 12})
	r.Add(Item{Index: 3, Status: StatusFailed, Error: "anki addNote: model was not found"})
	r.MissingExplanation = 1
	r.MissingForum = 1
	r.Finish(start.Add(2*time.Minute + 5*time.Second))
	return r
}

func TestReportAdd(t *testing.T) {
	r := sampleReport()
	if r.Processed != 3 || r.Success != 2 || r.Errors != 1 {
		t.Errorf("unexpected counters %+v", r)
	}
	if len(r.Items) != 3 {
		t.Errorf("expected 3 items, got %d", len(r.Items))
	}
	if s := r.Summary(); s.Items != nil || s.Success != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
	if len(r.Items) != 3 {
		t.Error("expected Summary to leave the report untouched")
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0min 0s"},
		{59 * time.Second, "0min 59s"},
		{2*time.Minute + 5*time.Second + 900*time.Millisecond, "2min 5s"},
		{75 * time.Minute, "75min 0s"},
	}
	for _, tt := range tests {
		if got := Duration(tt.d).String(); got != tt.want {
			t.Errorf("Duration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Write(buf, sampleReport(), FormatJSON); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded["deck"] != "TEC::Direito" || decoded["elapsed"] != "2min 5s" {
		t.Errorf("unexpected fields %v", decoded)
	}
	if items := decoded["items"].([]any); len(items) != 3 {
		t.Errorf("expected 3 items, got %d", len(items))
	}
	if !strings.Contains(buf.String(), "\n  \"deck\"") {
		t.Error("expected indented output")
	}
}

func TestWriteJSONL(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Write(buf, sampleReport(), FormatJSONL); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 3 item lines and a summary, got %d:\n%s", len(lines), buf.String())
	}
	var first Item
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid item line: %v", err)
	}
	if first.Index != 1 || first.NoteID != 11 {
		t.Errorf("unexpected first item %+v", first)
	}
	var summary map[string]any
	if err := json.Unmarshal([]byte(lines[3]), &summary); err != nil {
		t.Fatalf("invalid summary line: %v", err)
	}
	if _, ok := summary["items"]; ok {
		t.Error("expected summary line without items")
	}
	if summary["success"] != float64(2) {
		t.Errorf("unexpected summary %v", summary)
	}
}

func TestWriteYAML(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Write(buf, sampleReport(), FormatYAML); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if decoded["deck"] != "TEC::Direito" || decoded["elapsed"] != "2min 5s" {
		t.Errorf("unexpected fields %v", decoded)
	}
	if decoded["missing_forum"] != 1 {
		t.Errorf("unexpected missing_forum %v", decoded["missing_forum"])
	}
}

func TestWriteText(t *testing.T) {
	r := sampleReport()
	r.Stopped = "navigation failed"

	buf := &bytes.Buffer{}
	if err := Write(buf, r, FormatText); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Total                3\n",
		"Missing explanation  1\n",
		"Elapsed              2min 5s\n",
		"Deck                 TEC::Direito\n",
		"Forum                enabled\n",
		"Stopped              navigation failed\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"text", "json", "jsonl", "yaml"} {
		if f, err := ParseFormat(in); err != nil || string(f) != in {
			t.Errorf("ParseFormat(%q) = %q, %v", in, f, err)
		}
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("expected text default, got %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported error, got %v", err)
	}
	if err := Write(&bytes.Buffer{}, &Report{}, Format("xml")); err == nil {
		t.Error("expected error for unsupported format")
	}
}
