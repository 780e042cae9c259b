package flashcard

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.DropDataURIImages {
		t.Error("expected DropDataURIImages to be true")
	}
	if cfg.PreserveClasses {
		t.Error("expected PreserveClasses to be false")
	}
	if cfg.MaxImageURLChars != 300 {
		t.Errorf("expected MaxImageURLChars 300, got %d", cfg.MaxImageURLChars)
	}
	if cfg.Unavailable != UnavailableExplanation {
		t.Errorf("expected default sentinel, got %q", cfg.Unavailable)
	}
	if cfg.Selectors.Monospace != "span.texto-monospace" {
		t.Errorf("unexpected monospace selector %q", cfg.Selectors.Monospace)
	}
	if len(cfg.Selectors.EmptyElements) != 2 {
		t.Errorf("expected 2 empty element selectors, got %d", len(cfg.Selectors.EmptyElements))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero image limit", func(c *Config) { c.MaxImageURLChars = 0 }},
		{"negative image limit", func(c *Config) { c.MaxImageURLChars = -1 }},
		{"empty sentinel", func(c *Config) { c.Unavailable = "" }},
		{"missing question selector", func(c *Config) { c.Selectors.Question = "" }},
		{"missing explanation selector", func(c *Config) { c.Selectors.Explanation = "" }},
		{"missing monospace selector", func(c *Config) { c.Selectors.Monospace = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	t.Run("empty element selectors are optional", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Selectors.EmptyElements = nil
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})
}
