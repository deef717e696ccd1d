package yahoo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"us-breadth/internal/model"
)

// LogFunc emits a log line. When set, used instead of slog (fan-in logger).
type LogFunc func(msg string)

// intervals maps a bar step to the chart API interval it supports intraday.
var intervals = map[time.Duration]datetime.Interval{
	time.Minute:      datetime.Interval("1m"),
	2 * time.Minute:  datetime.Interval("2m"),
	5 * time.Minute:  datetime.Interval("5m"),
	15 * time.Minute: datetime.Interval("15m"),
	30 * time.Minute: datetime.Interval("30m"),
	60 * time.Minute: datetime.Interval("60m"),
	90 * time.Minute: datetime.Interval("90m"),
}

// Interval returns the chart interval for step.
func Interval(step time.Duration) (datetime.Interval, error) {
	iv, ok := intervals[step]
	if !ok {
		return "", fmt.Errorf("yahoo: unsupported step %s (use 1m, 2m, 5m, 15m, 30m, 60m or 90m)", step)
	}
	return iv, nil
}

// Client fetches intraday bars from the Yahoo chart API.
type Client struct {
	LogFunc LogFunc
}

func (c *Client) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c.LogFunc != nil {
		c.LogFunc(msg)
	} else {
		slog.Debug(msg)
	}
}

// SessionBars fetches bars in [from, to) with times in from's location.
// Minutes the chart API reports as null come back as zero prices and are
// dropped, leaving the minute absent.
func (c *Client) SessionBars(ctx context.Context, ticker string, from, to time.Time, step time.Duration) ([]model.Bar, error) {
	interval, err := Interval(step)
	if err != nil {
		return nil, err
	}
	if !from.Before(to) {
		return nil, nil
	}
	start, end := from, to
	params := &chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: interval,
	}

	var raw []*finance.ChartBar
	iter := chart.Get(params)
	for iter.Next() {
		raw = append(raw, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yahoo chart %s: %w", ticker, ctx.Err())
		}
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}

	bars := inRange(convertBars(raw, from.Location()), from, to)
	c.logf("[%s] %d bars (%d null or outside range)", ticker, len(bars), len(raw)-len(bars))
	return bars, nil
}

// convertBars converts chart bars, skipping null minutes (zero close).
func convertBars(raw []*finance.ChartBar, loc *time.Location) []model.Bar {
	bars := make([]model.Bar, 0, len(raw))
	for _, b := range raw {
		if b == nil || b.Close.IsZero() {
			continue
		}
		bars = append(bars, barFromChart(b, loc))
	}
	return bars
}

func barFromChart(b *finance.ChartBar, loc *time.Location) model.Bar {
	open, _ := b.Open.Float64()
	high, _ := b.High.Float64()
	low, _ := b.Low.Float64()
	closePx, _ := b.Close.Float64()
	return model.Bar{
		Time:   time.Unix(int64(b.Timestamp), 0).In(loc),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePx,
		Volume: int64(b.Volume),
	}
}

// inRange keeps bars with from <= Time < to.
func inRange(bars []model.Bar, from, to time.Time) []model.Bar {
	out := bars[:0]
	for _, b := range bars {
		if !b.Time.Before(from) && b.Time.Before(to) {
			out = append(out, b)
		}
	}
	return out
}
