package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/tecanki/internal/logger"
	"github.com/jmylchreest/tecanki/pkg/cleaner"
	"github.com/jmylchreest/tecanki/pkg/cleaner/flashcard"
	"github.com/jmylchreest/tecanki/pkg/fetcher"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file-or-url]",
	Short: "Run the flashcard cleaner on a saved capture or a URL",
	Long: `Clean one HTML fragment the way the run command cleans captures and
print the resulting field content to stdout.

The input is a file path, an http(s) URL, or stdin when no argument is
given. Stats go to stderr.

Examples:
  # Clean a saved question and show what was removed
  tecanki clean questao.html --stats

  # Fetch a page and clean only the explanation panel
  tecanki clean https://example.com/q/123 --select "div.comentario"

  # Compare against the raw input
  cat questao.html | tecanki clean --no-clean`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	flags := cleanCmd.Flags()

	// Input settings
	flags.String("select", "", "CSS selector narrowing a fetched page before cleaning")
	flags.Duration("timeout", 30*time.Second, "request timeout for URLs")
	flags.String("max-input", "5MB", "max input size (e.g., 500KB, 5MB, 0=unlimited)")

	// Cleaner settings
	flags.Bool("no-clean", false, "skip cleaning; only trim surrounding whitespace")
	flags.Bool("preserve-classes", false, "keep class attributes")
	flags.Bool("keep-data-images", false, "keep images with data: URIs")
	flags.Int("max-image-url", flashcard.DefaultConfig().MaxImageURLChars, "drop images whose src is longer than this")

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.Bool("stats", false, "print cleaning stats to stderr")
	flags.Bool("json", false, "print the full result as JSON instead of the content")
}

func runClean(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	selector, _ := cmd.Flags().GetString("select")

	maxInputStr, _ := cmd.Flags().GetString("max-input")
	maxInput, err := parseSize(maxInputStr)
	if err != nil {
		logError("invalid max-input %q: %v", maxInputStr, err)
		return err
	}

	var source string
	if len(args) > 0 {
		source = args[0]
	}
	input, err := readInput(ctx, source, selector, timeout)
	if err != nil {
		logError("%v", err)
		return err
	}
	if maxInput > 0 && len(input) > maxInput {
		err := fmt.Errorf("input is %s, over the %s limit", humanize.Bytes(uint64(len(input))), humanize.Bytes(uint64(maxInput)))
		logError("%v", err)
		return err
	}
	logger.Debug("input loaded", "source", coalesceSource(source), "bytes", len(input))

	cfg := flashcard.DefaultConfig()
	cfg.PreserveClasses, _ = cmd.Flags().GetBool("preserve-classes")
	keepData, _ := cmd.Flags().GetBool("keep-data-images")
	cfg.DropDataURIImages = !keepData
	cfg.MaxImageURLChars, _ = cmd.Flags().GetInt("max-image-url")
	if err := cfg.Validate(); err != nil {
		logError("%v", err)
		return err
	}

	noClean, _ := cmd.Flags().GetBool("no-clean")
	showStats, _ := cmd.Flags().GetBool("stats")
	asJSON, _ := cmd.Flags().GetBool("json")

	var out string
	if noClean {
		var c cleaner.Cleaner = cleaner.NewRaw()
		if out, err = c.Clean(input); err != nil {
			return err
		}
	} else {
		fc := flashcard.New(cfg)
		result := fc.CleanWithStats(input)
		if result.Error != nil {
			logger.Warn("cleaner recovered from a fault", "error", result.Error)
		}
		if showStats {
			fmt.Fprintf(os.Stderr, "Cleaner: %s, outcome: %s", fc.Name(), result.Outcome)
			if result.Source != flashcard.SourceNone {
				fmt.Fprintf(os.Stderr, ", source: %s", result.Source)
			}
			fmt.Fprintf(os.Stderr, "\n%s", result.Stats)
		}
		if asJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			out = string(data)
		} else {
			out = result.Content
		}
	}

	return writeOutput(cmd, out)
}

// readInput loads markup from a URL, a file, or stdin when source is empty.
func readInput(ctx context.Context, source, selector string, timeout time.Duration) (string, error) {
	switch {
	case source == "" || source == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil

	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		cfg := fetcher.DefaultStaticConfig()
		cfg.Timeout = timeout
		f := fetcher.NewStatic(cfg)
		defer f.Close()
		content, err := f.Fetch(ctx, source, fetcher.Options{Selector: selector})
		if err != nil {
			return "", fmt.Errorf("fetching %s: %w", source, err)
		}
		logger.Debug("page fetched", "url", content.URL, "status", content.StatusCode, "title", content.Title)
		return content.HTML, nil

	default:
		if selector != "" {
			logger.Warn("--select only applies to URLs", "selector", selector)
		}
		data, err := os.ReadFile(source)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// parseSize parses a human-readable size; empty or "0" means unlimited.
func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func coalesceSource(source string) string {
	if source == "" || source == "-" {
		return "stdin"
	}
	return source
}

func writeOutput(cmd *cobra.Command, out string) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		_, err := fmt.Fprintln(os.Stdout, out)
		return err
	}
	if err := os.WriteFile(path, []byte(out+"\n"), 0o644); err != nil {
		logError("failed to write output: %v", err)
		return err
	}
	logInfo("Output written to %s", path)
	return nil
}
