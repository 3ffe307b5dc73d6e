// Package readiness polls an HTTP endpoint until it answers with a 2xx status.
// It backs the probe command used by container images that ship without curl.
package readiness

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/example-app/internal/errors"
)

// requestTimeout bounds a single probe attempt
const requestTimeout = 2 * time.Second

// HTTPChecker checks service readiness via HTTP endpoint
type HTTPChecker struct {
	url      string
	timeout  time.Duration
	interval time.Duration
	client   *http.Client
}

// NewHTTPChecker creates a new HTTP readiness checker
func NewHTTPChecker(url string, timeout, interval time.Duration) (*HTTPChecker, error) {
	if url == "" {
		return nil, errors.ErrReadinessURL
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: probe interval must be positive", errors.ErrInvalidConfig)
	}

	return &HTTPChecker{
		url:      url,
		timeout:  timeout,
		interval: interval,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

// Check polls the endpoint, first immediately and then every interval, until
// it answers 2xx, the timeout passes, or ctx is done
func (h *HTTPChecker) Check(ctx context.Context) error {
	deadline := time.Now().Add(h.timeout)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		if h.ready(ctx) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", errors.ErrReadinessTimeout, h.url)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (h *HTTPChecker) ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return false
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
