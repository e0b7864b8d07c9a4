package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// DefaultSessionCookie is the cookie the backend reads the session id from.
const DefaultSessionCookie = "sessionId"

// Client is the REST client for the prediction-market backend. All reads
// and commands go through it; it holds no per-user state, the caller's
// session travels in the request context (see WithSession).
type Client struct {
	baseURL       string
	httpClient    *http.Client
	sessionCookie string
	newKey        func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionCookie overrides the name of the session cookie.
func WithSessionCookie(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.sessionCookie = name
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a backend client.
//
// baseURL is the API root, e.g. "http://localhost:3000/api".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		sessionCookie: DefaultSessionCookie,
		newKey:        newIdempotencyKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sessionCtxKey struct{}

// WithSession returns a copy of ctx whose backend requests carry the given
// session id.
func WithSession(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionCtxKey{}, sessionID)
}

// SessionFromContext returns the session id stored by WithSession.
func SessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionCtxKey{}).(string)
	return s
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps the status to a domain error so callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return domain.ErrBackendRejected
	}
}

// Message returns the user-facing text of the rejection: the body as sent,
// or only the inner message of a {"error": "..."} envelope. Empty when the
// body carries nothing.
func (e *StatusError) Message() string {
	body := strings.TrimSpace(e.Body)
	if strings.HasPrefix(body, "{") {
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(body), &envelope); err == nil {
			if msg := strings.TrimSpace(envelope.Error); msg != "" {
				return msg
			}
		}
	}
	return body
}

// AsStatusError reports whether err carries a backend status.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends a GET request and returns the raw body of a 2xx response.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// doPost sends a POST request with an optional JSON body.
func (c *Client) doPost(ctx context.Context, path string, body any, header http.Header) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body, header)
}

func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if session := SessionFromContext(ctx); session != "" {
		req.AddCookie(&http.Cookie{Name: c.sessionCookie, Value: session})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrBackendUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
