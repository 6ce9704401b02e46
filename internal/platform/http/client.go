package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client is a wrapper for HTTP client with rate limiting and bounded retries
type Client struct {
	HTTPClient    *http.Client
	Limiter       *rate.Limiter
	MaxRetries    uint64
	InitialWait   time.Duration
	BackoffFactor float64
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	Timeout        time.Duration
	RequestsPerSec int
	MaxRetries     uint64
	InitialWait    time.Duration
	BackoffFactor  float64
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(opts ClientOptions) *Client {
	// Set default values if not provided
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialWait == 0 {
		opts.InitialWait = time.Second
	}
	if opts.BackoffFactor == 0 {
		opts.BackoffFactor = 2
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		Limiter:       rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		MaxRetries:    opts.MaxRetries,
		InitialWait:   opts.InitialWait,
		BackoffFactor: opts.BackoffFactor,
	}
}

// DoRequest performs an HTTP request with rate limiting and retries.
// Transport errors and retryable statuses (429, 5xx) are retried with
// exponential backoff; any other non-2xx status fails immediately.
func (c *Client) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	// Wait for rate limiter
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *http.Response
	operation := func() error {
		// Rewind the body so a retried POST resends its payload
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Body = body
		}

		var err error
		resp, err = c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			statusErr := &HTTPStatusError{StatusCode: resp.StatusCode}
			if !retryable(resp.StatusCode) {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.InitialInterval = c.InitialWait
	backoffStrategy.Multiplier = c.BackoffFactor
	backoffStrategy.RandomizationFactor = 0

	retries := backoff.WithMaxRetries(backoffStrategy, c.MaxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(retries, ctx)); err != nil {
		return nil, err
	}

	return resp, nil
}

func retryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// HTTPStatusError represents an error due to a non-2xx HTTP status code
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-2xx status code: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
