package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Run wraps one adapter fetch with timing and logging. Errors are
// returned to the caller for containment at the cycle level.
func Run(ctx context.Context, adapter Adapter, since time.Time) error {
	start := time.Now()
	slog.Info("Fetching channel", "source", adapter.Source(), "account", adapter.Account(), "since", since)

	if err := adapter.Fetch(ctx, since); err != nil {
		slog.Error("Channel fetch failed",
			"source", adapter.Source(),
			"account", adapter.Account(),
			"duration", time.Since(start),
			"error", err)
		return fmt.Errorf("fetch %s/%s: %w", adapter.Source(), adapter.Account(), err)
	}

	slog.Info("Channel fetch completed",
		"source", adapter.Source(),
		"account", adapter.Account(),
		"duration", time.Since(start))

	return nil
}

// fetchURL performs one GET request with the shared user agent and timeout
func fetchURL(ctx context.Context, client *http.Client, url, userAgent string, timeout time.Duration) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
