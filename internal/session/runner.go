// Package session runs the capture, clean and add-note loop over a batch
// of questions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/tecanki/internal/anki"
	"github.com/jmylchreest/tecanki/internal/browser"
	"github.com/jmylchreest/tecanki/internal/forum"
	"github.com/jmylchreest/tecanki/internal/logger"
	"github.com/jmylchreest/tecanki/internal/report"
	"github.com/jmylchreest/tecanki/pkg/cleaner"
	"github.com/jmylchreest/tecanki/pkg/cleaner/flashcard"
)

// Browser captures page fragments and drives navigation.
type Browser interface {
	IsQuestionPage(ctx context.Context) bool
	CaptureQuestion(ctx context.Context) (string, error)
	CaptureExplanation(ctx context.Context) (string, error)
	CaptureForum(ctx context.Context) (string, error)
	Answer(ctx context.Context) error
	Next(ctx context.Context, mode browser.Mode) error
}

// NoteAdder stores finished notes.
type NoteAdder interface {
	AddNote(ctx context.Context, note anki.Note) (int64, error)
}

// ForumParser extracts comments from captured forum markup.
type ForumParser interface {
	Parse(markup string) ([]forum.Comment, error)
}

// Config controls one run.
type Config struct {
	Deck         string       `mapstructure:"deck" validate:"required"`
	Count        int          `mapstructure:"count" validate:"gte=1"`
	Mode         browser.Mode `mapstructure:"mode" validate:"oneof=next random"`
	IncludeForum bool         `mapstructure:"include_forum"`
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}
	return nil
}

// ErrNotOnQuestion is returned when the run starts away from a question.
var ErrNotOnQuestion = errors.New("browser is not on a question page")

// Progress is reported after every question.
type Progress struct {
	Index int
	Total int
	Item  report.Item
}

// Runner processes questions one at a time.
type Runner struct {
	config  Config
	browser Browser
	notes   NoteAdder
	cleaner cleaner.Cleaner
	forum   ForumParser
	log     *slog.Logger

	// OnProgress, when set, is called after each question.
	OnProgress func(Progress)

	now func() time.Time
}

// NewRunner creates a Runner. A nil cleaner uses the flashcard pipeline
// with its defaults; a nil forum parser uses the default selectors.
func NewRunner(cfg Config, b Browser, notes NoteAdder, c cleaner.Cleaner, fp ForumParser) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		c = flashcard.New(nil)
	}
	if fp == nil {
		fp = forum.NewParser(forum.DefaultSelectors(), flashcard.DefaultConfig().MaxImageURLChars)
	}
	return &Runner{
		config:  cfg,
		browser: b,
		notes:   notes,
		cleaner: c,
		forum:   fp,
		log:     logger.Component("session"),
		now:     time.Now,
	}, nil
}

// Run processes up to Count questions starting from the current page.
// A failed question is counted and skipped; a failed navigation ends the
// run early with Report.Stopped set.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	rep := &report.Report{
		Deck:         r.config.Deck,
		Mode:         string(r.config.Mode),
		IncludeForum: r.config.IncludeForum,
		Total:        r.config.Count,
		StartedAt:    r.now(),
	}
	defer func() { rep.Finish(r.now()) }()

	if !r.browser.IsQuestionPage(ctx) {
		return rep, ErrNotOnQuestion
	}

	for i := 1; i <= r.config.Count; i++ {
		if err := ctx.Err(); err != nil {
			rep.Stopped = err.Error()
			return rep, err
		}

		item := r.processQuestion(ctx, i, rep)
		rep.Add(item)
		if r.OnProgress != nil {
			r.OnProgress(Progress{Index: i, Total: r.config.Count, Item: item})
		}

		if i == r.config.Count {
			break
		}
		if err := r.browser.Next(ctx, r.config.Mode); err != nil {
			r.log.Error("navigation failed", "question", i, "error", err)
			rep.Stopped = fmt.Sprintf("navigation after question %d failed: %v", i, err)
			break
		}
	}
	return rep, nil
}

// processQuestion captures, cleans and stores the current question.
func (r *Runner) processQuestion(ctx context.Context, index int, rep *report.Report) report.Item {
	start := r.now()
	item := report.Item{Index: index}
	log := r.log.With("question", index, "total", r.config.Count)

	fail := func(err error) report.Item {
		log.Error("question failed", "error", err)
		item.Status = report.StatusFailed
		item.Error = err.Error()
		item.Duration = report.Duration(r.now().Sub(start))
		return item
	}

	questionHTML, err := r.browser.CaptureQuestion(ctx)
	if err != nil {
		return fail(fmt.Errorf("capture question: %w", err))
	}
	log.Debug("question captured", "bytes", len(questionHTML))

	explanationHTML, err := r.browser.CaptureExplanation(ctx)
	if err != nil {
		log.Warn("explanation unavailable", "error", err)
		rep.MissingExplanation++
		explanationHTML = flashcard.UnavailableExplanation
	} else {
		item.Explanation = true
	}

	var forumHTML string
	if r.config.IncludeForum {
		forumHTML = r.captureForum(ctx, log)
		if forum.IsCaptured(forumHTML) {
			item.Forum = true
		} else {
			rep.MissingForum++
		}
	}

	front, err := r.cleaner.Clean(questionHTML)
	if err != nil {
		return fail(fmt.Errorf("clean question: %w", err))
	}
	back, err := r.cleaner.Clean(explanationHTML)
	if err != nil {
		return fail(fmt.Errorf("clean explanation: %w", err))
	}
	back = ComposeBack(back, forumHTML)
	item.FrontBytes, item.BackBytes = len(front), len(back)

	id, err := r.notes.AddNote(ctx, anki.NewBasicNote(r.config.Deck, front, back))
	if err != nil {
		return fail(fmt.Errorf("add note: %w", err))
	}
	item.NoteID = id
	item.Status = report.StatusCreated
	log.Info("card created", "note_id", id, "deck", r.config.Deck)

	if r.config.Mode == browser.ModeRandom {
		if err := r.browser.Answer(ctx); err != nil {
			log.Warn("could not answer question", "error", err)
		}
	}

	item.Duration = report.Duration(r.now().Sub(start))
	return item
}

// captureForum returns rendered comments, the empty notice, or
// forum.Unavailable.
func (r *Runner) captureForum(ctx context.Context, log *slog.Logger) string {
	raw, err := r.browser.CaptureForum(ctx)
	if err != nil {
		log.Warn("forum unavailable", "error", err)
		return forum.Unavailable
	}
	comments, err := r.forum.Parse(raw)
	if err != nil {
		log.Warn("forum markup unreadable", "error", err)
		return forum.Unavailable
	}
	if len(comments) == 0 {
		return forum.Unavailable
	}
	rendered, err := forum.Render(comments)
	if err != nil {
		log.Warn("forum rendering failed", "error", err)
		return forum.Unavailable
	}
	log.Debug("forum captured", "comments", len(comments))
	return rendered
}

// ComposeBack appends the forum section to the cleaned explanation when
// comments were captured.
func ComposeBack(explanation, forumHTML string) string {
	if !forum.IsCaptured(forumHTML) {
		return explanation
	}
	return explanation + forum.Separator + forumHTML
}
