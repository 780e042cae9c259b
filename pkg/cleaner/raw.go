package cleaner

import "strings"

// RawCleaner stores a capture as the browser returned it, minus the
// whitespace around it. Use it to compare a card against the source markup.
type RawCleaner struct{}

// NewRaw creates a RawCleaner.
func NewRaw() *RawCleaner {
	return &RawCleaner{}
}

// Clean trims leading and trailing whitespace and leaves the markup itself
// untouched.
func (c *RawCleaner) Clean(html string) (string, error) {
	return strings.TrimSpace(html), nil
}

// Name returns the cleaner type.
func (c *RawCleaner) Name() string {
	return "raw"
}
