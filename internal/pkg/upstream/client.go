// Package upstream is the shared HTTP plumbing for outbound JSON APIs:
// client-side rate limiting, retries with exponential backoff, tracing and
// latency metrics.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/pkg/metrics"
	"github.com/samirrijal/roomradar/internal/pkg/telemetry"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultRateLimit  = rate.Limit(20)
	DefaultBurst      = 5
	DefaultMaxRetries = 2
	DefaultRetryDelay = 200 * time.Millisecond

	maxErrorBody = 512
)

// StatusError is a non-2xx answer from an upstream service.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Unwrap maps the status to a domain error so callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity:
		return domain.ErrInvalidInput
	default:
		return domain.ErrUpstream
	}
}

// Client performs JSON requests against one upstream service.
type Client struct {
	service    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	headers    http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit sets a custom rate limit (requests per second).
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets how often idempotent requests are retried and the
// initial backoff delay.
func WithRetries(n int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.retryDelay = baseDelay
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// New creates a client for service, used in errors, spans and metrics.
func New(service string, opts ...Option) *Client {
	c := &Client{
		service:    service,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(DefaultRateLimit, DefaultBurst),
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		headers:    http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET and decodes the answer into out.
func (c *Client) GetJSON(ctx context.Context, op, url string, out any) error {
	return c.Do(ctx, op, http.MethodGet, url, nil, out)
}

// PostJSON issues a POST with body encoded as JSON. POSTs are not retried.
func (c *Client) PostJSON(ctx context.Context, op, url string, body, out any) error {
	return c.Do(ctx, op, http.MethodPost, url, body, out)
}

// Do executes a request. GET requests are retried on network errors, 429
// and 5xx answers with exponential backoff.
func (c *Client) Do(ctx context.Context, op, method, url string, body, out any) (err error) {
	ctx, span := telemetry.StartSpan(ctx, c.service, op, attribute.String("http.method", method))
	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(c.service, op, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.service, err)
		}
	}

	retries := 0
	if method == http.MethodGet {
		retries = c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limiter: %w", c.service, err)
		}

		retry, err := c.attempt(ctx, method, url, payload, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	if retries == 0 {
		return lastErr
	}
	return fmt.Errorf("%s: max retries exceeded: %w", c.service, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, url string, payload []byte, out any) (retry bool, err error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return false, fmt.Errorf("%s: create request: %w", c.service, err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("%s: %w: %v", c.service, domain.ErrUpstream, err)
	}

	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return true, fmt.Errorf("%s: %w: read response: %v", c.service, domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{Service: c.service, StatusCode: resp.StatusCode, Body: truncate(data)}
		retry = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return retry, serr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%s: %w: parse json: %v", c.service, domain.ErrUpstream, err)
	}
	return false, nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.StatusCode == code
}
