package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atharvakonge/quantumpool-web/internal/session"
	"go.uber.org/zap"
)

// ErrRequestFailed is matched by every error caused by a non-2xx backend
// response.
var ErrRequestFailed = errors.New("request failed")

// RequestError carries the backend's status and message
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *RequestError) Unwrap() error {
	return ErrRequestFailed
}

// Message returns the user-facing message of err
func Message(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Client talks to the backend REST API. Every call is a fresh round trip:
// no retries, no caching, no deduplication.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	log        *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("component", "api"))
	return c
}

// WithToken returns a copy of the client that sends token as bearer auth
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// WithCookie returns a copy authenticated with the token found in the raw
// session cookie. An absent or malformed cookie yields an empty token and
// unauthenticated requests.
func (c *Client) WithCookie(raw string) *Client {
	return c.WithToken(session.BearerToken(raw))
}

// Token returns the bearer token this client sends
func (c *Client) Token() string {
	return c.token
}

type request struct {
	method     string
	path       string
	query      url.Values
	body       any
	auth       bool
	defaultMsg string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	raw, err := c.doRaw(ctx, r)
	if err != nil {
		return err
	}
	return decode(r.path, raw, out)
}

func decode(path string, raw []byte, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, r request) ([]byte, error) {
	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", r.path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", r.path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("backend unreachable", zap.String("path", r.path), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &RequestError{Status: resp.StatusCode, Message: backendMessage(raw, r.defaultMsg)}
		c.log.Warn("backend request failed",
			zap.String("path", r.path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", reqErr.Message))
		return nil, reqErr
	}
	return raw, nil
}

// backendMessage pulls "detail" or "message" out of an error body
func backendMessage(raw []byte, fallback string) string {
	var body struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}
	if detail, ok := body.Detail.(string); ok && detail != "" {
		return detail
	}
	if body.Message != "" {
		return body.Message
	}
	return fallback
}
