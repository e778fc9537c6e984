package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lk479o000/twitter-crawler-app/internal/domain"
	"github.com/lk479o000/twitter-crawler-app/internal/metrics"
	"github.com/lk479o000/twitter-crawler-app/internal/throttle"
)

const (
	defaultBaseURL    = "https://api.x.com/2"
	defaultPageSize   = 100
	requestTimeout    = 30 * time.Second
	defaultRecentDays = 7
)

// Config carries the per-run client settings. Immutable after construction;
// replace the whole client to change it between runs.
type Config struct {
	BearerToken        string
	FullArchiveEnabled bool
	// RecentWindowDays is the platform's recent-search lookback. Intervals
	// starting earlier than now minus this window need full-archive access.
	RecentWindowDays int
	// BaseURL overrides the API host (tests).
	BaseURL  string
	PageSize int
}

// Client talks to the search API v2. All requests flow through the shared
// throttle, which owns pacing and retry.
type Client struct {
	cfg        Config
	httpClient *http.Client
	throttle   *throttle.Throttle
	clock      clockwork.Clock
}

// NewClient creates an API client. The throttle is shared across all
// operations so the global rate budget holds regardless of caller count.
func NewClient(cfg Config, th *throttle.Throttle, clock clockwork.Clock) (*Client, error) {
	if cfg.BearerToken == "" {
		return nil, fmt.Errorf("bearer token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RecentWindowDays <= 0 {
		cfg.RecentWindowDays = defaultRecentDays
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		throttle:   th,
		clock:      clock,
	}, nil
}

// needsFullArchive reports whether the interval reaches past the recent
// search window.
func (c *Client) needsFullArchive(interval domain.DateInterval) bool {
	cutoff := c.clock.Now().UTC().AddDate(0, 0, -c.cfg.RecentWindowDays)
	return interval.Start.Before(cutoff)
}

// searchPath picks the search endpoint for the interval. Full-archive
// requested without the capability fails before any network call so the
// caller never mistakes a truncated recent result for complete history.
func (c *Client) searchPath(interval domain.DateInterval) (string, error) {
	if !c.needsFullArchive(interval) {
		return "/tweets/search/recent", nil
	}
	if !c.cfg.FullArchiveEnabled {
		return "", fmt.Errorf("%w: interval %s predates the %d-day recent window",
			domain.ErrCapabilityRequired, interval, c.cfg.RecentWindowDays)
	}
	return "/tweets/search/all", nil
}

// countsPath mirrors searchPath for the dedicated counts endpoint.
func (c *Client) countsPath(interval domain.DateInterval) (string, error) {
	if !c.needsFullArchive(interval) {
		return "/tweets/counts/recent", nil
	}
	if !c.cfg.FullArchiveEnabled {
		return "", fmt.Errorf("%w: interval %s predates the %d-day recent window",
			domain.ErrCapabilityRequired, interval, c.cfg.RecentWindowDays)
	}
	return "/tweets/counts/all", nil
}

// buildQuery encodes a target as a search query string.
func buildQuery(target domain.Target, includeReposts bool) string {
	var q string
	if target.Kind == domain.TargetAccount {
		q = "from:" + target.Value
	} else {
		q = target.Value
	}
	if !includeReposts {
		q += " -is:retweet"
	}
	return q
}

// getJSON issues one GET through the throttle and decodes the response.
// Non-2xx statuses become *domain.UpstreamError; undecodable bodies become
// *domain.MalformedResponseError.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := path
	return c.throttle.Do(ctx, func(ctx context.Context) error {
		start := c.clock.Now()
		err := c.getOnce(ctx, path, params, out)
		metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(c.clock.Since(start).Seconds())

		status := "ok"
		var upstream *domain.UpstreamError
		if err != nil {
			status = "error"
			if errors.As(err, &upstream) {
				status = strconv.Itoa(upstream.StatusCode)
			}
		}
		metrics.APIRequestsTotal.WithLabelValues(endpoint, status).Inc()
		return err
	})
}

func (c *Client) getOnce(ctx context.Context, path string, params url.Values, out any) error {
	u := c.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &domain.MalformedResponseError{Err: err}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
