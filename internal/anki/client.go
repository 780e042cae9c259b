// Package anki is a client for the AnkiConnect JSON API.
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmylchreest/tecanki/internal/logger"
)

const (
	// DefaultEndpoint is where the AnkiConnect add-on listens.
	DefaultEndpoint = "http://127.0.0.1:8765"

	// APIVersion is the AnkiConnect protocol version sent with every call.
	APIVersion = 6

	// DefaultTimeout bounds a single call. Anki can stall while syncing.
	DefaultTimeout = 120 * time.Second
)

var (
	// ErrUnavailable indicates AnkiConnect could not be reached.
	ErrUnavailable = errors.New("AnkiConnect unavailable")
	// ErrInvalidResponse indicates the reply is not a {result, error} envelope.
	ErrInvalidResponse = errors.New("invalid AnkiConnect response")
)

// APIError is an error reported by AnkiConnect itself.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anki %s: %s", e.Action, e.Message)
}

// Client calls AnkiConnect over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the given endpoint. An empty endpoint uses
// DefaultEndpoint.
func New(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params"`
}

// Invoke performs one action. params may be nil; result may be nil when the
// caller does not need the returned value.
func (c *Client) Invoke(ctx context.Context, action string, params, result any) error {
	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(request{Action: action, Version: APIVersion, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("anki request failed", "action", action, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned HTTP %d", ErrUnavailable, action, resp.StatusCode)
	}

	return decodeEnvelope(action, raw, result)
}

// decodeEnvelope checks that raw holds exactly the result and error keys.
func decodeEnvelope(action string, raw []byte, result any) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	resultRaw, hasResult := envelope["result"]
	errorRaw, hasError := envelope["error"]
	if len(envelope) != 2 || !hasResult || !hasError {
		return fmt.Errorf("%w: %s", ErrInvalidResponse, string(raw))
	}

	var apiMsg *string
	if err := json.Unmarshal(errorRaw, &apiMsg); err != nil {
		return fmt.Errorf("%w: error field: %v", ErrInvalidResponse, err)
	}
	if apiMsg != nil && *apiMsg != "" {
		return &APIError{Action: action, Message: *apiMsg}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resultRaw, result); err != nil {
		return fmt.Errorf("%w: result field: %v", ErrInvalidResponse, err)
	}
	return nil
}

// Version returns the AnkiConnect version.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	err := c.Invoke(ctx, "version", nil, &v)
	return v, err
}

// Ping checks that AnkiConnect answers.
func (c *Client) Ping(ctx context.Context) error {
	v, err := c.Version(ctx)
	if err != nil {
		return err
	}
	logger.Debug("AnkiConnect reachable", "endpoint", c.endpoint, "version", v)
	return nil
}

// CreateDeck creates the deck if it does not exist and returns its id.
func (c *Client) CreateDeck(ctx context.Context, name string) (int64, error) {
	var id int64
	err := c.Invoke(ctx, "createDeck", map[string]string{"deck": name}, &id)
	return id, err
}

// DeckNames lists every deck.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.Invoke(ctx, "deckNames", nil, &names)
	return names, err
}

// AddNote adds one note and returns its id.
func (c *Client) AddNote(ctx context.Context, note Note) (int64, error) {
	var id int64
	err := c.Invoke(ctx, "addNote", map[string]Note{"note": note}, &id)
	return id, err
}
