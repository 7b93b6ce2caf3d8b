// Package provider holds the upstream market-data clients. Each client is
// a pure translation layer over one HTTP source: it never touches the
// cache or the store, and it maps every failure onto the shared taxonomy
// (domain.ErrRateLimited for throttling, domain.ErrProviderUnavailable
// for everything else).
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finview/finview-backend/internal/domain"
)

const defaultTimeout = 10 * time.Second

// httpGet performs one GET with the uniform error mapping. The response
// body is returned only for 200 responses.
func httpGet(ctx context.Context, client *http.Client, url, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", source, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", source, domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w: %v", source, domain.ErrProviderUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: status %d: %w", source, resp.StatusCode, domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s: status %d: %w", source, resp.StatusCode, domain.ErrProviderUnavailable)
	}

	return body, nil
}

// dateOf truncates an instant to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
