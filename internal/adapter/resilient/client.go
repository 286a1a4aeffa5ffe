// Package resilient wraps outbound HTTP calls with retries, exponential backoff and a
// circuit breaker.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned without attempting a request while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// StatusError is a non-2xx response. Body holds at most the first 4 KiB.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Backoff controls retry timing. Delay for attempt n is Initial·2ⁿ, capped at Max.
type Backoff struct {
	MaxRetries int
	Initial    time.Duration
	Max        time.Duration
}

// DefaultBackoff retries three times starting at 500ms.
var DefaultBackoff = Backoff{MaxRetries: 3, Initial: 500 * time.Millisecond, Max: 5 * time.Second}

func (b Backoff) delay(attempt int) time.Duration {
	d := b.Initial << attempt
	if b.Max > 0 && (d > b.Max || d <= 0) {
		d = b.Max
	}
	return d
}

// Client executes requests through a circuit breaker with retries.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	backoff Backoff
}

// New creates a Client. name labels the breaker.
func New(name string, httpClient *http.Client, backoff Backoff) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// Client errors say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return !se.Retryable()
			}
			return err == nil
		},
	})
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, breaker: cb, backoff: backoff}
}

// Do sends the request built by build, retrying network errors, 429 and 5xx. The
// caller owns the returned body. Non-retryable statuses return a *StatusError at once.
func (c *Client) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := build(ctx)
		if err != nil {
			return nil, err
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			resp, err := c.http.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				defer resp.Body.Close()
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
			}
			return resp, nil
		})
		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, errors.New("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, fmt.Errorf("giving up after %d attempts: %w", attempt+1, lastErr)
		}

		if !retry.SleepWithContext(ctx, c.backoff.delay(attempt)) {
			return nil, ctx.Err()
		}
	}
}

// State reports the breaker state, for readiness checks.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
