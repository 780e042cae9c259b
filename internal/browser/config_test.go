package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/chromedp/kb"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got %v", err)
	}
	if cfg.Headless {
		t.Error("expected a visible window by default")
	}
	if cfg.Delays.Navigation != 2500*time.Millisecond {
		t.Errorf("unexpected navigation delay %v", cfg.Delays.Navigation)
	}
	if cfg.Keys.Explanation != "o" || cfg.Keys.Forum != "f" || cfg.Keys.Answer != "c" || cfg.Keys.Random != "l" {
		t.Errorf("unexpected keys %+v", cfg.Keys)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing login url", func(c *Config) { c.LoginURL = "" }},
		{"invalid login url", func(c *Config) { c.LoginURL = "tecconcursos" }},
		{"zero wait timeout", func(c *Config) { c.WaitTimeout = 0 }},
		{"zero element timeout", func(c *Config) { c.ElementTimeout = 0 }},
		{"missing question selector", func(c *Config) { c.Selectors.Question = "" }},
		{"missing forum key", func(c *Config) { c.Keys.Forum = "" }},
		{"zero navigation delay", func(c *Config) { c.Delays.Navigation = 0 }},
		{"negative settle delay", func(c *Config) { c.Delays.ForumSettle = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"next", ModeNext, false},
		{"Proxima", ModeNext, false},
		{"1", ModeNext, false},
		{"random", ModeRandom, false},
		{" aleatoria ", ModeRandom, false},
		{"2", ModeRandom, false},
		{"sideways", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNavigationKey(t *testing.T) {
	keys := DefaultKeys()
	if got := navigationKey(ModeNext, keys); got != kb.ArrowRight {
		t.Errorf("expected arrow right for next mode, got %q", got)
	}
	if got := navigationKey(ModeRandom, keys); got != "l" {
		t.Errorf("expected l for random mode, got %q", got)
	}
}

func TestFindBinary(t *testing.T) {
	lookPath := func(name string) (string, error) {
		if name == "chromium" {
			return "/usr/bin/chromium", nil
		}
		return "", errors.New("not found")
	}
	if got := findBinary([]string{"google-chrome", "chromium", "chrome"}, lookPath); got != "/usr/bin/chromium" {
		t.Errorf("got %q", got)
	}
	if got := findBinary([]string{"google-chrome"}, lookPath); got != "" {
		t.Errorf("expected no binary, got %q", got)
	}
}

func TestPause(t *testing.T) {
	if err := pause(context.Background(), 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := pause(context.Background(), time.Millisecond); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pause(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestChromeFlags(t *testing.T) {
	visible := chromeFlags(DefaultConfig())
	if visible["headless"] != false || visible["start-maximized"] != true {
		t.Errorf("unexpected visible flags %v", visible)
	}
	if _, ok := visible["no-sandbox"]; ok {
		t.Error("sandbox should stay on for a visible window")
	}

	cfg := DefaultConfig()
	cfg.Headless = true
	headless := chromeFlags(cfg)
	for _, name := range []string{"headless", "disable-gpu", "no-sandbox", "disable-dev-shm-usage"} {
		if headless[name] != true {
			t.Errorf("expected %s=true, got %v", name, headless[name])
		}
	}

	for _, flags := range []map[string]any{visible, headless} {
		if _, ok := flags["excludeSwitches"]; ok {
			t.Error("excludeSwitches is not a Chrome switch")
		}
	}
}
