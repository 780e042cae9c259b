package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/tecanki/internal/anki"
	"github.com/jmylchreest/tecanki/internal/browser"
	"github.com/jmylchreest/tecanki/internal/logger"
	"github.com/jmylchreest/tecanki/internal/report"
	"github.com/jmylchreest/tecanki/internal/session"
	"github.com/jmylchreest/tecanki/internal/version"
	"github.com/jmylchreest/tecanki/pkg/cleaner/flashcard"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create flashcards from a batch of questions",
	Long: `Open a browser on TEC Concursos, wait for you to log in and open the
first question, then create one Anki note per question.

The front of each note is the cleaned question with its alternatives; the
back is the cleaned explanation, optionally followed by the forum comments.
Anki must be running with the AnkiConnect add-on.

Browser selectors, keys and delays can be overridden in the config file
under the "browser" key; cleaner settings under the "cleaner" key.

Examples:
  # 10 cards into the default deck
  tecanki run -n 10

  # Random unsolved questions, with forum comments, report as YAML
  tecanki run -d "Português" -n 30 -m random --include-forum \
      --report-format yaml --report-output relatorio.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()

	// Batch settings
	flags.StringP("deck", "d", "TEC Concursos", "Anki deck to add notes to (created if missing)")
	flags.IntP("count", "n", 10, "number of questions to process")
	flags.StringP("mode", "m", string(browser.ModeNext), "navigation mode: next, random")
	flags.Bool("include-forum", false, "append forum comments to the back of each card")

	// Anki settings
	flags.String("anki-url", anki.DefaultEndpoint, "AnkiConnect endpoint")
	flags.Duration("anki-timeout", anki.DefaultTimeout, "AnkiConnect request timeout")

	// Browser settings
	flags.String("login-url", browser.DefaultLoginURL, "page opened when the browser starts")
	flags.String("chrome-path", "", "Chrome/Chromium executable (auto-detected when empty)")
	flags.Bool("headless", false, "run the browser without a window")
	flags.String("screenshot-dir", "", "save a screenshot here when a capture fails")
	flags.Bool("no-wait", false, "start immediately instead of waiting for ENTER after login")

	// Report settings
	flags.String("report-format", string(report.FormatText), "report format: text, json, jsonl, yaml")
	flags.String("report-output", "", "report file (default: stdout)")

	// Bind to viper
	_ = viper.BindPFlag("deck", flags.Lookup("deck"))
	_ = viper.BindPFlag("count", flags.Lookup("count"))
	_ = viper.BindPFlag("mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("include_forum", flags.Lookup("include-forum"))
	_ = viper.BindPFlag("anki_url", flags.Lookup("anki-url"))
	_ = viper.BindPFlag("anki_timeout", flags.Lookup("anki-timeout"))
	_ = viper.BindPFlag("login_url", flags.Lookup("login-url"))
	_ = viper.BindPFlag("chrome_path", flags.Lookup("chrome-path"))
	_ = viper.BindPFlag("headless", flags.Lookup("headless"))
	_ = viper.BindPFlag("screenshot_dir", flags.Lookup("screenshot-dir"))
	_ = viper.BindPFlag("no_wait", flags.Lookup("no-wait"))
	_ = viper.BindPFlag("report_format", flags.Lookup("report-format"))
	_ = viper.BindPFlag("report_output", flags.Lookup("report-output"))
}

func runRun(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Debug("run command starting")

	mode, err := browser.ParseMode(viper.GetString("mode"))
	if err != nil {
		logError("%v", err)
		return err
	}
	runCfg := session.Config{
		Deck:         viper.GetString("deck"),
		Count:        viper.GetInt("count"),
		Mode:         mode,
		IncludeForum: viper.GetBool("include_forum"),
	}
	if err := runCfg.Validate(); err != nil {
		logError("%v", err)
		return err
	}

	format, err := report.ParseFormat(viper.GetString("report_format"))
	if err != nil {
		logError("%v", err)
		return err
	}

	browserCfg, err := loadBrowserConfig()
	if err != nil {
		logError("%v", err)
		return err
	}
	cleanerCfg, err := loadCleanerConfig()
	if err != nil {
		logError("%v", err)
		return err
	}

	// Anki must be up before a browser is started.
	client := anki.New(viper.GetString("anki_url"),
		anki.WithTimeout(viper.GetDuration("anki_timeout")),
		anki.WithUserAgent(version.UserAgent()),
	)
	if err := client.Ping(ctx); err != nil {
		logError("AnkiConnect is not reachable at %s: %v", client.Endpoint(), err)
		logInfo("Open Anki with the AnkiConnect add-on installed and try again.")
		return err
	}
	if _, err := client.CreateDeck(ctx, runCfg.Deck); err != nil {
		logError("failed to create deck %q: %v", runCfg.Deck, err)
		return err
	}
	logger.Info("deck ready", "deck", runCfg.Deck, "endpoint", client.Endpoint())

	sess, err := browser.Start(browserCfg)
	if err != nil {
		logError("%v", err)
		return err
	}
	defer sess.Close()

	if err := sess.OpenLogin(ctx); err != nil {
		logError("failed to open %s: %v", browserCfg.LoginURL, err)
		return err
	}

	if !viper.GetBool("no_wait") {
		logInfo("Log in, open the first question and press ENTER to start...")
		if err := waitForEnter(ctx, os.Stdin); err != nil {
			return err
		}
	}

	runner, err := session.NewRunner(runCfg, sess, client, flashcard.New(cleanerCfg), nil)
	if err != nil {
		logError("%v", err)
		return err
	}
	runner.OnProgress = func(p session.Progress) {
		status := "ok"
		if p.Item.Status == report.StatusFailed {
			status = "failed: " + p.Item.Error
		}
		logInfo("[%d/%d] %s (%s)", p.Index, p.Total, status, p.Item.Duration)
	}

	rep, runErr := runner.Run(ctx)
	if runErr != nil {
		if errors.Is(runErr, session.ErrNotOnQuestion) {
			logError("no question found on the current page; open a question before pressing ENTER")
		} else {
			logError("run interrupted: %v", runErr)
		}
	}

	logger.Info("run finished",
		"deck", rep.Deck,
		"processed", rep.Processed,
		"success", rep.Success,
		"missing_explanation", rep.MissingExplanation,
		"missing_forum", rep.MissingForum,
		"errors", rep.Errors,
		"elapsed", rep.Elapsed.String(),
	)

	if err := writeReport(rep, format, viper.GetString("report_output")); err != nil {
		logError("failed to write report: %v", err)
		return err
	}
	return runErr
}

// loadBrowserConfig starts from the defaults, applies the "browser"
// section of the config file, then the flags.
func loadBrowserConfig() (browser.Config, error) {
	cfg := browser.DefaultConfig()
	if viper.IsSet("browser") {
		if err := viper.UnmarshalKey("browser", &cfg); err != nil {
			return cfg, fmt.Errorf("invalid browser config: %w", err)
		}
	}
	cfg.LoginURL = viper.GetString("login_url")
	cfg.Headless = viper.GetBool("headless")
	if p := viper.GetString("chrome_path"); p != "" {
		cfg.ChromePath = p
	}
	if d := viper.GetString("screenshot_dir"); d != "" {
		cfg.ScreenshotDir = d
	}
	return cfg, cfg.Validate()
}

// loadCleanerConfig reads the "cleaner" section of the config file.
func loadCleanerConfig() (*flashcard.Config, error) {
	cfg := flashcard.DefaultConfig()
	if viper.IsSet("cleaner.drop_data_uri_images") {
		cfg.DropDataURIImages = viper.GetBool("cleaner.drop_data_uri_images")
	}
	if viper.IsSet("cleaner.max_image_url_chars") {
		cfg.MaxImageURLChars = viper.GetInt("cleaner.max_image_url_chars")
	}
	if viper.IsSet("cleaner.preserve_classes") {
		cfg.PreserveClasses = viper.GetBool("cleaner.preserve_classes")
	}
	return cfg, cfg.Validate()
}

// waitForEnter blocks until a line is read from r or ctx is done.
func waitForEnter(ctx context.Context, r io.Reader) error {
	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(r).ReadString('\n')
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
}

func writeReport(rep *report.Report, format report.Format, path string) error {
	if path == "" || path == "-" {
		return report.Write(os.Stdout, rep, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := report.Write(f, rep, format); err != nil {
		return err
	}
	logger.Info("report written", "path", path, "format", format)
	return nil
}
