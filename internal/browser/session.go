package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/jmylchreest/tecanki/internal/logger"
)

var (
	// ErrNotQuestionPage indicates the current tab shows no question.
	ErrNotQuestionPage = errors.New("not on a question page")
	// ErrExplanationUnavailable indicates the explanation panel did not open.
	ErrExplanationUnavailable = errors.New("explanation unavailable")
	// ErrForumUnavailable indicates the forum did not open.
	ErrForumUnavailable = errors.New("forum unavailable")
)

// Session is one visible Chrome window attached to a single tab.
// Methods must not be called concurrently.
type Session struct {
	config      Config
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	log         *slog.Logger
}

// Start launches the browser. The window is visible unless cfg.Headless is
// set, so that the user can log in.
func Start(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	for name, value := range chromeFlags(cfg) {
		opts = append(opts, chromedp.Flag(name, value))
	}

	chromePath := cfg.ChromePath
	if chromePath == "" {
		chromePath = FindChromePath()
	}
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	s := &Session{
		config:      cfg,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		log:         logger.Component("browser"),
	}
	s.dismissDialogs()

	// The first Run starts the browser process.
	if err := chromedp.Run(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	s.log.Info("browser started", "path", chromePath, "headless", cfg.Headless)
	return s, nil
}

// chromeFlags returns the command-line switches added to the chromedp
// defaults.
func chromeFlags(cfg Config) map[string]any {
	flags := map[string]any{
		"headless":               cfg.Headless,
		"start-maximized":        true,
		"disable-blink-features": "AutomationControlled",
	}
	if cfg.Headless {
		flags["disable-gpu"] = true
		flags["no-sandbox"] = true
		flags["disable-dev-shm-usage"] = true
	}
	return flags
}

// dismissDialogs accepts alert/confirm dialogs so they never block a run.
func (s *Session) dismissDialogs() {
	chromedp.ListenTarget(s.ctx, func(ev any) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			go func() {
				if err := chromedp.Run(s.ctx, page.HandleJavaScriptDialog(true)); err != nil {
					s.log.Debug("failed to dismiss dialog", "error", err)
				}
			}()
		}
	})
}

// Close shuts the browser down.
func (s *Session) Close() error {
	s.cancel()
	s.allocCancel()
	return nil
}

// run executes actions bounded by timeout and by the caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// pause waits for d unless ctx ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// press sends keys to the focused page and waits for delay.
func (s *Session) press(ctx context.Context, keys string, delay time.Duration) error {
	if err := s.run(ctx, s.config.ElementTimeout, chromedp.KeyEvent(keys)); err != nil {
		return fmt.Errorf("failed to send %q: %w", keys, err)
	}
	return pause(ctx, delay)
}

// OpenLogin navigates to the login page.
func (s *Session) OpenLogin(ctx context.Context) error {
	return s.Navigate(ctx, s.config.LoginURL)
}

// Navigate loads url and waits for the body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.log.Debug("navigating", "url", url)
	if err := s.run(ctx, s.config.ElementTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

// exists reports whether selector matches an element right now.
func (s *Session) exists(ctx context.Context, selector string) bool {
	var ok bool
	script := "document.querySelector(" + strconv.Quote(selector) + ") !== null"
	if err := s.run(ctx, s.config.ElementTimeout, chromedp.Evaluate(script, &ok)); err != nil {
		s.log.Debug("selector check failed", "selector", selector, "error", err)
		return false
	}
	return ok
}

// waitFor waits up to WaitTimeout for selector to appear.
func (s *Session) waitFor(ctx context.Context, selector string) error {
	return s.run(ctx, s.config.WaitTimeout, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// outerHTML reads the outer HTML of the first match of selector.
func (s *Session) outerHTML(ctx context.Context, selector string) (string, error) {
	if !s.exists(ctx, selector) {
		return "", fmt.Errorf("no element matches %s", selector)
	}
	var html string
	if err := s.run(ctx, s.config.ElementTimeout,
		chromedp.OuterHTML(selector, &html, chromedp.ByQuery),
	); err != nil {
		s.screenshot(selector)
		return "", err
	}
	return html, nil
}

// IsQuestionPage reports whether a question is displayed.
func (s *Session) IsQuestionPage(ctx context.Context) bool {
	return s.exists(ctx, s.config.Selectors.Question)
}

// CaptureQuestion returns the outer HTML of the question container.
func (s *Session) CaptureQuestion(ctx context.Context) (string, error) {
	html, err := s.outerHTML(ctx, s.config.Selectors.Question)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotQuestionPage, err)
	}
	return html, nil
}

// CaptureExplanation opens the official explanation and returns its HTML.
func (s *Session) CaptureExplanation(ctx context.Context) (string, error) {
	if err := s.press(ctx, s.config.Keys.Explanation, s.config.Delays.Explanation); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExplanationUnavailable, err)
	}
	if err := s.waitFor(ctx, s.config.Selectors.ExplanationPanel); err != nil {
		return "", fmt.Errorf("%w: panel did not open: %v", ErrExplanationUnavailable, err)
	}
	html, err := s.outerHTML(ctx, s.config.Selectors.Explanation)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExplanationUnavailable, err)
	}
	return html, nil
}

// CaptureForum opens the forum, returns the raw thread markup and closes
// the forum again, also on failure.
func (s *Session) CaptureForum(ctx context.Context) (string, error) {
	defer s.closeForum(ctx)

	if err := s.press(ctx, s.config.Keys.Forum, s.config.Delays.Forum); err != nil {
		return "", fmt.Errorf("%w: %v", ErrForumUnavailable, err)
	}
	if err := s.waitFor(ctx, s.config.Selectors.Forum); err != nil {
		return "", fmt.Errorf("%w: %v", ErrForumUnavailable, err)
	}
	if err := pause(ctx, s.config.Delays.ForumSettle); err != nil {
		return "", err
	}
	html, err := s.outerHTML(ctx, s.config.Selectors.Forum)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrForumUnavailable, err)
	}
	return html, nil
}

func (s *Session) closeForum(ctx context.Context) {
	if err := s.press(ctx, kb.Escape, s.config.Delays.ForumClose); err != nil {
		s.log.Debug("failed to close forum", "error", err)
	}
}

// Answer selects the answer key and confirms it.
func (s *Session) Answer(ctx context.Context) error {
	if err := s.press(ctx, s.config.Keys.Answer, s.config.Delays.Answer); err != nil {
		return err
	}
	return s.press(ctx, kb.Enter, s.config.Delays.Answer)
}

// Next moves to the next question for mode and checks that one is shown.
func (s *Session) Next(ctx context.Context, mode Mode) error {
	if err := s.press(ctx, navigationKey(mode, s.config.Keys), s.config.Delays.Navigation); err != nil {
		return err
	}
	if !s.IsQuestionPage(ctx) {
		return ErrNotQuestionPage
	}
	return nil
}

func navigationKey(mode Mode, keys Keys) string {
	if mode == ModeRandom {
		return keys.Random
	}
	return kb.ArrowRight
}

// screenshot saves the current viewport when ScreenshotDir is set.
func (s *Session) screenshot(label string) {
	if s.config.ScreenshotDir == "" {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return
	}
	path := filepath.Join(s.config.ScreenshotDir, fmt.Sprintf("tecanki-%d.png", time.Now().UnixNano()))
	if err := os.WriteFile(path, buf, 0o644); err == nil {
		s.log.Debug("debug screenshot saved", "path", path, "selector", label)
	}
}
