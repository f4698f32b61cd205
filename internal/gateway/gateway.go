// Package gateway holds the stateless clients for the public upstream
// services: geocoding, combined forecast, and timezone resolution. Each
// lookup is isolated so one upstream's failure cannot corrupt another's
// result; failure modes differ per client and are documented on each.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

var (
	// ErrUpstreamFailure covers transport errors and non-success HTTP statuses.
	ErrUpstreamFailure = errors.New("upstream failure")
	// ErrMalformedPayload covers responses that decode but lack required fields.
	ErrMalformedPayload = errors.New("malformed upstream payload")

	// errPermanentStatus marks non-success statuses (4xx other than 429) that
	// retrying cannot fix.
	errPermanentStatus = errors.New("non-retryable status")
)

// Options configures the shared HTTP behavior of all gateway clients. The
// limiter paces outbound calls across every upstream so a large tracked list
// refreshing concurrently stays polite to the free public APIs.
type Options struct {
	HTTPClient     *http.Client
	Limiter        *rate.Limiter
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

func (o *Options) withDefaults() Options {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 100 * time.Millisecond
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = 2 * time.Second
	}
	return opts
}

// caller wraps one upstream service with rate limiting, retries with
// exponential backoff, and a circuit breaker.
type caller struct {
	service string
	opts    Options
	breaker *gobreaker.CircuitBreaker
}

func newCaller(service string, opts *Options) *caller {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        service,
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.CircuitBreakerTransitionsTotal.
				WithLabelValues(name, from.String(), to.String()).Inc()
			observability.CircuitBreakerState.
				WithLabelValues(name).Set(breakerStateValue(to))
		},
	})
	observability.CircuitBreakerState.WithLabelValues(service).Set(0)
	return &caller{service: service, opts: opts.withDefaults(), breaker: cb}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// getJSON issues a GET with the caller's resilience stack and decodes the
// response into out. Retries transport errors, 429s and 5xx; other non-success
// statuses and decode failures are returned immediately.
func (c *caller) getJSON(ctx context.Context, url string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			observability.UpstreamRetriesTotal.WithLabelValues(c.service).Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		err := c.callOnce(ctx, url, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *caller) callOnce(ctx context.Context, url string, out interface{}) error {
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.opts.HTTPClient.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: HTTP %d: %w", ErrUpstreamFailure, resp.StatusCode, errPermanentStatus)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamFailure, err)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return nil, nil
	})

	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = statusLabel(err)
	}
	observability.UpstreamCallsTotal.WithLabelValues(c.service, status).Inc()
	observability.UpstreamCallDuration.WithLabelValues(c.service, status).Observe(duration)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit open: %v", ErrUpstreamFailure, err)
	}
	return err
}

// backoff returns the delay before retry attempt n, exponential with jitter.
func (c *caller) backoff(attempt int) time.Duration {
	delay := float64(c.opts.RetryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.opts.RetryMaxDelay) {
		delay = float64(c.opts.RetryMaxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedPayload) || errors.Is(err, errPermanentStatus) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	return errors.Is(err, ErrUpstreamFailure)
}

func statusLabel(err error) string {
	switch {
	case errors.Is(err, ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}
