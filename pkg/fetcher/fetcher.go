// Package fetcher loads saved or live question pages over HTTP so that
// captures can be cleaned outside the interactive browser session.
package fetcher

import (
	"context"
	"errors"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources.
	Close() error

	// Type returns a string identifying the fetcher type.
	Type() string
}

// Options controls fetching behavior.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Headers   map[string]string
	Cookies   []Cookie

	// Selector narrows the result to the outer HTML of the first match,
	// the way the browser session captures a single container.
	Selector string
}

// Cookie represents an HTTP cookie, typically a logged-in session.
type Cookie struct {
	Name  string
	Value string
}

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// Error types for distinguishing failure reasons.
var (
	// ErrSelectorNotFound indicates Options.Selector matched nothing.
	ErrSelectorNotFound = errors.New("selector matched no element")
	// ErrEmptyBody indicates the server returned no content.
	ErrEmptyBody = errors.New("empty response body")
)
