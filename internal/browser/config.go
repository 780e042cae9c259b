// Package browser drives the interactive Chrome session used to capture
// questions, explanations and forum threads from TEC Concursos.
//
// The user logs in by hand; afterwards the session only reads the DOM and
// sends the site's keyboard shortcuts.
package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultLoginURL is opened when the session starts.
const DefaultLoginURL = "https://www.tecconcursos.com.br/login"

// Mode selects how the session moves to the next question.
type Mode string

const (
	// ModeNext moves to the next question in the list without answering.
	ModeNext Mode = "next"
	// ModeRandom answers the current question, then jumps to a random
	// unsolved one.
	ModeRandom Mode = "random"
)

// ParseMode converts a mode name. "proxima" and "aleatoria" are accepted
// as aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "next", "proxima", "1":
		return ModeNext, nil
	case "random", "aleatoria", "2":
		return ModeRandom, nil
	}
	return "", fmt.Errorf("unknown navigation mode %q (want next or random)", s)
}

// Selectors locate the page regions the session reads.
type Selectors struct {
	Question         string `mapstructure:"question" validate:"required"`
	ExplanationPanel string `mapstructure:"explanation_panel" validate:"required"`
	Explanation      string `mapstructure:"explanation" validate:"required"`
	Forum            string `mapstructure:"forum" validate:"required"`
}

// DefaultSelectors returns the TEC Concursos selectors.
func DefaultSelectors() Selectors {
	return Selectors{
		Question:         `article[ng-if*='questao']`,
		ExplanationPanel: `article[ng-if*="comentario"]`,
		Explanation:      `div[tec-formatar-html='vm.comentario.textoComentario']`,
		Forum:            "ul.discussao-comentarios",
	}
}

// Keys are the site shortcuts sent to the page.
type Keys struct {
	Explanation string `mapstructure:"explanation" validate:"required"`
	Forum       string `mapstructure:"forum" validate:"required"`
	Answer      string `mapstructure:"answer" validate:"required"`
	Random      string `mapstructure:"random" validate:"required"`
}

// DefaultKeys returns the TEC Concursos shortcuts.
func DefaultKeys() Keys {
	return Keys{
		Explanation: "o",
		Forum:       "f",
		Answer:      "c",
		Random:      "l",
	}
}

// Delays are the pauses after each page interaction.
type Delays struct {
	Explanation time.Duration `mapstructure:"explanation" validate:"gt=0"`
	Forum       time.Duration `mapstructure:"forum" validate:"gt=0"`
	ForumSettle time.Duration `mapstructure:"forum_settle" validate:"gte=0"`
	ForumClose  time.Duration `mapstructure:"forum_close" validate:"gte=0"`
	Answer      time.Duration `mapstructure:"answer" validate:"gt=0"`
	Navigation  time.Duration `mapstructure:"navigation" validate:"gt=0"`
}

// DefaultDelays returns pauses that let the site's scripts settle.
func DefaultDelays() Delays {
	return Delays{
		Explanation: 2 * time.Second,
		Forum:       3 * time.Second,
		ForumSettle: 2 * time.Second,
		ForumClose:  time.Second,
		Answer:      time.Second,
		Navigation:  2500 * time.Millisecond,
	}
}

// Config holds configuration for the browser session.
type Config struct {
	LoginURL   string `mapstructure:"login_url" validate:"required,url"`
	ChromePath string `mapstructure:"chrome_path"`
	Headless   bool   `mapstructure:"headless"`

	// WaitTimeout bounds waiting for a panel to appear after a shortcut.
	WaitTimeout time.Duration `mapstructure:"wait_timeout" validate:"gt=0"`
	// ElementTimeout bounds reading an element that should already exist.
	ElementTimeout time.Duration `mapstructure:"element_timeout" validate:"gt=0"`

	// ScreenshotDir receives a screenshot when a capture fails. Empty
	// disables screenshots.
	ScreenshotDir string `mapstructure:"screenshot_dir"`

	Selectors Selectors `mapstructure:"selectors"`
	Keys      Keys      `mapstructure:"keys"`
	Delays    Delays    `mapstructure:"delays"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LoginURL:       DefaultLoginURL,
		WaitTimeout:    5 * time.Second,
		ElementTimeout: 10 * time.Second,
		Selectors:      DefaultSelectors(),
		Keys:           DefaultKeys(),
		Delays:         DefaultDelays(),
	}
}

// Validate reports the first invalid field, if any.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid browser config: %w", err)
	}
	return nil
}
