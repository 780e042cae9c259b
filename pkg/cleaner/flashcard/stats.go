package flashcard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Outcome classifies how a pipeline call ended.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeEmptyInput  Outcome = "empty_input"
	OutcomeSentinel    Outcome = "sentinel"
	OutcomeNoContainer Outcome = "no_container"
	OutcomeFault       Outcome = "fault"
)

// Source names the extraction branch that produced the content.
type Source string

const (
	SourceNone        Source = ""
	SourceQuestion    Source = "question"
	SourceExplanation Source = "explanation"
	SourceBody        Source = "body"
)

// Stats captures what the pipeline did to one input.
type Stats struct {
	InputBytes  int `json:"input_bytes"`
	OutputBytes int `json:"output_bytes"`

	ElementsRemoved   map[string]int `json:"elements_removed"`   // tag -> count
	ElementsUnwrapped map[string]int `json:"elements_unwrapped"` // tag -> count

	AttributesRemoved      int `json:"attributes_removed"`
	StylePropertiesDropped int `json:"style_properties_dropped"`
	ImagesDropped          int `json:"images_dropped"`
	CommentsRemoved        int `json:"comments_removed"`

	MathReplaced     int `json:"math_replaced"`
	MathEmptyDropped int `json:"math_empty_dropped"`
	MonospaceBlocks  int `json:"monospace_blocks"`

	AlternativesKept    int `json:"alternatives_kept"`
	AlternativesDropped int `json:"alternatives_dropped"`

	// DegradedParse is set when the markup was rebuilt with nesting capped.
	DegradedParse bool `json:"degraded_parse,omitempty"`

	ParseDuration     time.Duration `json:"parse_duration_ms"`
	TransformDuration time.Duration `json:"transform_duration_ms"`
	TotalDuration     time.Duration `json:"total_duration_ms"`
}

// NewStats creates a Stats with initialized maps.
func NewStats() *Stats {
	return &Stats{
		ElementsRemoved:   make(map[string]int),
		ElementsUnwrapped: make(map[string]int),
	}
}

// RecordRemoval records that an element was deleted with its contents.
func (s *Stats) RecordRemoval(tag string) {
	s.ElementsRemoved[strings.ToLower(tag)]++
}

// RecordUnwrap records that an element was replaced by its children.
func (s *Stats) RecordUnwrap(tag string) {
	s.ElementsUnwrapped[strings.ToLower(tag)]++
}

// TotalElementsRemoved returns the sum of all removed elements.
func (s *Stats) TotalElementsRemoved() int {
	total := 0
	for _, count := range s.ElementsRemoved {
		total += count
	}
	return total
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %s -> %s (%.1f%% reduction)\n",
		humanize.Bytes(uint64(s.InputBytes)), humanize.Bytes(uint64(s.OutputBytes)), s.ReductionPercent()))

	if len(s.ElementsRemoved) > 0 {
		sb.WriteString("Removed: " + countsString(s.ElementsRemoved) + "\n")
	}
	if len(s.ElementsUnwrapped) > 0 {
		sb.WriteString("Unwrapped: " + countsString(s.ElementsUnwrapped) + "\n")
	}
	if s.AttributesRemoved > 0 || s.StylePropertiesDropped > 0 {
		sb.WriteString(fmt.Sprintf("Attributes removed: %d, style properties dropped: %d\n",
			s.AttributesRemoved, s.StylePropertiesDropped))
	}
	if s.MathReplaced > 0 || s.MonospaceBlocks > 0 {
		sb.WriteString(fmt.Sprintf("Math: %d replaced, %d empty; monospace blocks: %d\n",
			s.MathReplaced, s.MathEmptyDropped, s.MonospaceBlocks))
	}
	if s.AlternativesKept > 0 || s.AlternativesDropped > 0 {
		sb.WriteString(fmt.Sprintf("Alternatives: %d kept, %d dropped\n",
			s.AlternativesKept, s.AlternativesDropped))
	}

	if s.DegradedParse {
		sb.WriteString("Parse: degraded, nesting capped\n")
	}

	sb.WriteString(fmt.Sprintf("Timing: parse=%v, transform=%v, total=%v\n",
		s.ParseDuration.Round(time.Microsecond),
		s.TransformDuration.Round(time.Microsecond),
		s.TotalDuration.Round(time.Microsecond)))

	return sb.String()
}

func countsString(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

// Result contains the output of one pipeline call.
type Result struct {
	// Content is always safe to store in a flashcard field: cleaned HTML,
	// one of the fixed error strings, or the passed-through sentinel.
	Content string `json:"content"`

	Outcome Outcome `json:"outcome"`
	Source  Source  `json:"source,omitempty"`
	Stats   *Stats  `json:"stats"`

	// Error is set only when a fault was recovered; Content still holds
	// the fault string.
	Error error `json:"-"`
}

// Degraded reports whether the content is an error string rather than
// cleaned markup or the sentinel.
func (r *Result) Degraded() bool {
	switch r.Outcome {
	case OutcomeOK, OutcomeSentinel:
		return false
	}
	return true
}
