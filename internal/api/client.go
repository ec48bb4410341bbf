// Package api is the HTTP resource client for the remote users API.
//
// Every call attaches the session credential read at request time and
// normalises failures into the console's error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/log"
	"github.com/felixgeelhaar/nexconsole/internal/version"
)

// TokenSource supplies the credential attached to outgoing calls.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the users API client
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	APIKey     string
	UserAgent  string

	tokens  TokenSource
	limiter *rate.Limiter
	logger  *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

// WithAPIKey sends key in the x-api-key header
func WithAPIKey(key string) Option {
	return func(c *Client) { c.APIKey = key }
}

// WithTokenSource attaches credentials from ts
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithRateLimit bounds outgoing requests to rps per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the client logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new users API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: version.GetInfo().UserAgent(),
		logger:    log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("api")
	return c
}

// doRequest performs an HTTP request with authentication
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.NewTransportError(err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.KindTransport, errors.ErrCodeEncodeRequest, "failed to marshal request body", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, errors.Wrap(errors.KindTransport, errors.ErrCodeEncodeRequest, "failed to create request", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", c.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.WithError(err).DebugContext(ctx, "request failed", "method", method, "path", path, "request_id", requestID)
		return nil, transportError(err)
	}

	c.logger.DebugContext(ctx, "request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func transportError(err error) *errors.ConsoleError {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrap(errors.KindTransport, errors.ErrCodeTimeout, "request timed out", err).
			WithSuggestion("Retry the action; increase api.timeout if the API is slow")
	}
	return errors.NewTransportError(err)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// parseResponse parses the response body into the target struct
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return statusError(resp.StatusCode, body)
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.Wrap(errors.KindTransport, errors.ErrCodeDecodeResponse, "failed to decode response", err)
	}
	return nil
}

// statusError maps a non-2xx status to an error kind
func statusError(status int, body []byte) *errors.ConsoleError {
	message := http.StatusText(status)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Error != "" {
			message = errResp.Error
		} else if errResp.Message != "" {
			message = errResp.Message
		}
	} else if trimmed := strings.TrimSpace(string(body)); trimmed != "" && len(trimmed) < 200 {
		message = trimmed
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.NewUnauthorizedError(status, message)
	case status == http.StatusNotFound:
		return errors.New(errors.KindNotFound, errors.ErrCodeNotFound, message).WithStatus(status)
	case status >= 500:
		return errors.New(errors.KindServer, errors.ErrCodeServer, fmt.Sprintf("server error: %s", message)).
			WithStatus(status).
			WithSuggestion("Try again later")
	default:
		return errors.New(errors.KindRequest, errors.ErrCodeBadRequest, message).WithStatus(status)
	}
}
