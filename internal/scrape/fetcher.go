package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cardbazaar/cardbazaar/backend/internal/metrics"
)

const (
	defaultFetchTimeout   = 30 * time.Second
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 2 * time.Second

	// Some sources block requests with an empty or default client identity.
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
)

// Fetcher retrieves the content of a single page. HTTPFetcher serves
// server-rendered sources; RenderFetcher serves script-rendered ones.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher issues a plain GET with bounded retries. Rate-limit
// responses back off exponentially (initialBackoff * 2^(attempt-1)); other
// retryable failures back off flat.
type HTTPFetcher struct {
	client         *http.Client
	userAgent      string
	maxAttempts    int
	initialBackoff time.Duration
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: defaultFetchTimeout,
		},
		userAgent:      defaultUserAgent,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
	}
}

// NewHTTPFetcherWithConfig is used by tests and by sources that need a
// different retry budget.
func NewHTTPFetcherWithConfig(maxAttempts int, initialBackoff time.Duration, timeout time.Duration) *HTTPFetcher {
	f := NewHTTPFetcher()
	if maxAttempts > 0 {
		f.maxAttempts = maxAttempts
	}
	if initialBackoff > 0 {
		f.initialBackoff = initialBackoff
	}
	if timeout > 0 {
		f.client.Timeout = timeout
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := f.initialBackoff
			if lastStatus == http.StatusTooManyRequests {
				// Exponential backoff on rate limits: initial * 2^(attempt-1)
				backoff = f.initialBackoff << (attempt - 1)
			}
			metrics.FetchRetriesTotal.Inc()
			select {
			case <-ctx.Done():
				return "", &FatalError{URL: url, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		body, status, err := f.doRequest(ctx, url)
		if err != nil {
			lastErr = err
			lastStatus = 0
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return body, nil
		case status == http.StatusTooManyRequests || status >= 500:
			lastStatus = status
			lastErr = nil
			continue
		default:
			// Client errors other than 429 will not resolve by retrying.
			return "", &FatalError{URL: url, StatusCode: status}
		}
	}

	if lastErr != nil {
		return "", &FatalError{URL: url, Err: lastErr}
	}
	return "", &TransientError{URL: url, StatusCode: lastStatus, Attempts: f.maxAttempts}
}

func (f *HTTPFetcher) doRequest(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), resp.StatusCode, nil
}
