package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const httpProbeTimeout = 5 * time.Second

// ProbeHTTP performs one reachability probe against a health endpoint.
// Success is any non-server-error response; redirects are not followed so a
// reverse-proxy redirect still counts as reachable.
func ProbeHTTP(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, httpProbeTimeout)
	defer cancel()

	client := &http.Client{
		Timeout: httpProbeTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unhealthy status %d", resp.StatusCode)
	}
	return nil
}
