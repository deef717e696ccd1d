package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"us-breadth/internal/model"
)

const (
	// DefaultBaseURL is the Polygon REST API root.
	DefaultBaseURL = "https://api.polygon.io"

	// Max 50k results per request; one session is far below that.
	maxLimit = 50000

	// KeyCooldown: Polygon free tier is 5 req/min => 12s between requests per key
	KeyCooldown = 12 * time.Second

	retryDelay = 15 * time.Second
)

// ErrRateLimited is returned when the API answers 429 on the last attempt.
var ErrRateLimited = errors.New("polygon rate limit (429)")

// LogFunc emits a log line. When set, used instead of slog (fan-in logger).
type LogFunc func(msg string)

// Crawler fetches aggregate bars for one session window from the Polygon API.
// API-key rotation and cooldown are the caller's concern.
type Crawler struct {
	client      *http.Client
	BaseURL     string
	MaxAttempts int           // attempts per aggregates call; <1 means 1
	RetryDelay  time.Duration // wait between attempts
	LogFunc     LogFunc       // Optional fan-in logger for diagnostics.
}

func (c *Crawler) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c.LogFunc != nil {
		c.LogFunc(msg)
	} else {
		slog.Debug(msg)
	}
}

// Close closes connections
func (c *Crawler) Close() error {
	if c.client != nil {
		c.client.CloseIdleConnections()
	}
	return nil
}

// multiplier converts a bar step to Polygon's minute multiplier.
func multiplier(step time.Duration) (int, error) {
	if step < time.Minute || step%time.Minute != 0 {
		return 0, fmt.Errorf("step %s is not a whole number of minutes", step)
	}
	return int(step / time.Minute), nil
}

// buildAggregatesRequest builds GET request for minute aggregates (adjusted, limit, sort, apiKey).
func (c *Crawler) buildAggregatesRequest(ctx context.Context, ticker string, mult int, fromMillis, toMillis int64, apiKey string) (*http.Request, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	rawURL := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/minute/%d/%d", base, url.PathEscape(ticker), mult, fromMillis, toMillis)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	q := u.Query()
	q.Set("adjusted", "true")
	q.Set("limit", strconv.Itoa(maxLimit))
	q.Set("sort", "asc")
	q.Set("apiKey", apiKey)
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Connection", "close")
	return req, nil
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// doAggregatesRequest runs one GET request with up to MaxAttempts attempts.
// Status OK and DELAYED both decode results; any other status is an error.
func (c *Crawler) doAggregatesRequest(ctx context.Context, build func() (*http.Request, error)) (*AggregatesResponse, error) {
	client := c.client
	if client == nil {
		client = http.DefaultClient
	}
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.logf("[RETRY] attempt %d/%d after %v", attempt, attempts, lastErr)
			if err := sleepCtx(ctx, c.RetryDelay); err != nil {
				return nil, err
			}
		}
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("API call failed: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("%w: %s", ErrRateLimited, string(body))
				continue
			}
			return nil, fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
		}

		var result AggregatesResponse
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("parse JSON: %w", err)
			continue
		}

		switch result.Status {
		case "OK", "DELAYED":
			// DELAYED plans still carry results, lagging real time.
			return &result, nil
		default:
			return nil, fmt.Errorf("API status not OK: %s", result.Status)
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// SessionBars fetches bars in the half-open range [from, to) at the given step
// using apiKey. Bar times are returned in loc.
func (c *Crawler) SessionBars(ctx context.Context, ticker, apiKey string, from, to time.Time, step time.Duration, loc *time.Location) ([]model.Bar, error) {
	mult, err := multiplier(step)
	if err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	// Polygon treats both ends as inclusive.
	fromMillis := from.UnixMilli()
	toMillis := to.Add(-time.Millisecond).UnixMilli()

	response, err := c.doAggregatesRequest(ctx, func() (*http.Request, error) {
		return c.buildAggregatesRequest(ctx, ticker, mult, fromMillis, toMillis, apiKey)
	})
	if err != nil {
		return nil, err
	}

	bars := make([]model.Bar, 0, len(response.Results))
	for _, raw := range response.Results {
		bars = append(bars, raw.ToBar(loc))
	}
	c.logf("[%s] %d bars status=%s (%s..%s)", ticker, len(bars), response.Status, from.Format(time.RFC3339), to.Format(time.RFC3339))
	return bars, nil
}
