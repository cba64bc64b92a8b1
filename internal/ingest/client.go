package ingest

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"time"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

const fetchAttempts = 3

// fetchBody GETs one endpoint with exponential backoff on transport errors
// and 5xx answers. A 4xx answer fails immediately; any terminal failure
// surfaces as an UpstreamFetchError so the caller aborts the whole load.
func fetchBody(ctx context.Context, c HTTPClient, endpoint, url string) ([]byte, error) {
	if url == "" {
		return nil, &UpstreamFetchError{Endpoint: endpoint, Err: errNotConfigured}
	}

	var lastStatus int
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, attempt); err != nil {
				return nil, &UpstreamFetchError{Endpoint: endpoint, URL: url, Err: err}
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &UpstreamFetchError{Endpoint: endpoint, URL: url, Err: err}
		}
		resp, err := c.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				lastErr = readErr
				continue
			}
			return body, nil
		}
		lastStatus = resp.StatusCode
		lastErr = nil
		if resp.StatusCode < 500 {
			break
		}
	}
	return nil, &UpstreamFetchError{Endpoint: endpoint, URL: url, Status: lastStatus, Err: lastErr}
}

func backoff(ctx context.Context, attempt int) error {
	sleep := time.Duration(1<<attempt) * 100 * time.Millisecond
	sleep += time.Duration(rand.Intn(150)) * time.Millisecond
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sleep):
		return nil
	}
}
