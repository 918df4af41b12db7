package dwd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// FetchError carries the station/source context of a failed fetch so the
// orchestrator can log and skip without losing diagnostics.
type FetchError struct {
	Source  string
	Station string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for station %s: %v", e.Source, e.Station, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

var (
	errServerError = errors.New("server error")
	errNotFound    = errors.New("resource not found")
	errUnexpected  = errors.New("unexpected status code")
)

// BackoffConfig controls retry behaviour for provider downloads.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client downloads resources from the DWD open data server with request
// timeouts, exponential backoff and a circuit breaker.
type Client struct {
	base    string
	http    *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates a download client rooted at base.
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dwd-opendata",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		base: base,
		http: httpClient,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
		},
		circuit: cb,
	}
}

// Base returns the configured base URL.
func (c *Client) Base() string { return c.base }

// Get downloads url and returns the body. Server errors are retried with
// exponential backoff; 4xx responses are not.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if reqErr != nil {
				return nil, reqErr
			}

			resp, doErr := c.http.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: %s", errNotFound, url)
			case resp.StatusCode >= 500:
				return nil, fmt.Errorf("%w: %d from %s", errServerError, resp.StatusCode, url)
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				return nil, fmt.Errorf("%w: %d from %s", errUnexpected, resp.StatusCode, url)
			}

			return io.ReadAll(resp.Body)
		})
		if err == nil {
			return result.([]byte), nil
		}

		// A 404 is a definitive answer, not a transient failure.
		if errors.Is(err, errNotFound) || errors.Is(err, errUnexpected) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("circuit breaker open: %w", err)
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}
