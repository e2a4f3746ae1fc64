package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for the odds API HTTP client
type HTTPClientConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second
	RequestCap   int     // max requests per calendar month (provider quota)
}

// DefaultHTTPClientConfig returns recommended defaults for the free-tier
// odds API plan.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
		RateLimit:    1.0,
		RequestCap:   500,
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with request-rate limiting
// and a monthly request budget. One instance is shared between the HTTP
// handlers and the scheduler, so the budget counter must be safe for
// concurrent use.
type RateLimitedHTTPClient struct {
	client       *retryablehttp.Client
	limiter      *rate.Limiter
	requestCap   int
	requestCount atomic.Int64
	logger       *logrus.Logger
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *logrus.Logger) *RateLimitedHTTPClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	retryClient.Logger = nil

	return &RateLimitedHTTPClient{
		client:     retryClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		requestCap: cfg.RequestCap,
		logger:     logger,
	}
}

// Do executes an HTTP request, blocking on the rate limiter and counting the
// request against the monthly budget. The budget slot is reserved before the
// request goes out and released if the send fails, so the cap holds exactly
// under concurrent callers.
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if used := c.requestCount.Add(1); c.requestCap > 0 && used > int64(c.requestCap) {
		c.requestCount.Add(-1)
		return nil, fmt.Errorf("monthly request cap of %d reached", c.requestCap)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.requestCount.Add(-1)
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req)
	if err != nil {
		c.requestCount.Add(-1)
		return nil, fmt.Errorf("failed to wrap request: %w", err)
	}

	resp, err := c.client.Do(retryReq.WithContext(ctx))
	if err != nil {
		c.requestCount.Add(-1)
		return nil, err
	}

	return resp, nil
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// RequestsUsed returns how many requests have been counted against the budget
func (c *RateLimitedHTTPClient) RequestsUsed() int {
	return int(c.requestCount.Load())
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// customRetryPolicy defines which HTTP responses should trigger a retry
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			// Retry on network errors
			return true, err
		}

		// Retry on rate limit and server-side errors
		switch resp.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true, nil
		}

		return false, nil
	}
}
