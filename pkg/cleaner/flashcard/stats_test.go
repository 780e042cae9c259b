package flashcard

import (
	"strings"
	"testing"
	"time"
)

func TestNewStats(t *testing.T) {
	s := NewStats()
	if s.ElementsRemoved == nil {
		t.Error("expected ElementsRemoved map to be initialized")
	}
	if s.ElementsUnwrapped == nil {
		t.Error("expected ElementsUnwrapped map to be initialized")
	}
}

func TestStatsRecord(t *testing.T) {
	s := NewStats()
	s.RecordRemoval("SCRIPT")
	s.RecordRemoval("script")
	s.RecordRemoval("img")
	s.RecordUnwrap("font")

	if s.ElementsRemoved["script"] != 2 {
		t.Errorf("expected 2 scripts, got %d", s.ElementsRemoved["script"])
	}
	if s.TotalElementsRemoved() != 3 {
		t.Errorf("expected 3 removals, got %d", s.TotalElementsRemoved())
	}
	if s.ElementsUnwrapped["font"] != 1 {
		t.Errorf("expected 1 unwrapped font, got %d", s.ElementsUnwrapped["font"])
	}
}

func TestStatsReductionPercent(t *testing.T) {
	tests := []struct {
		in, out int
		want    float64
	}{
		{0, 0, 0},
		{1000, 250, 75},
		{100, 100, 0},
	}
	for _, tt := range tests {
		s := &Stats{InputBytes: tt.in, OutputBytes: tt.out}
		if got := s.ReductionPercent(); got != tt.want {
			t.Errorf("ReductionPercent(%d, %d) = %f, want %f", tt.in, tt.out, got, tt.want)
		}
	}
}

func TestStatsString(t *testing.T) {
	s := NewStats()
	s.InputBytes = 2000
	s.OutputBytes = 500
	s.RecordRemoval("style")
	s.RecordRemoval("img")
	s.RecordUnwrap("section")
	s.MathReplaced = 2
	s.AlternativesKept = 4
	s.TotalDuration = 3 * time.Millisecond

	out := s.String()
	for _, want := range []string{
		"Size: 2.0 kB -> 500 B (75.0% reduction)",
		"Removed: img=1, style=1",
		"Unwrapped: section=1",
		"Math: 2 replaced",
		"Alternatives: 4 kept, 0 dropped",
		"total=3ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Attributes removed") {
		t.Errorf("unexpected attribute line in:\n%s", out)
	}
}
