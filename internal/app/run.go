package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"us-breadth/internal/breadth"
	"us-breadth/internal/crawl"
	"us-breadth/internal/saver"
	"us-breadth/internal/session"
	"us-breadth/internal/slogx"
)

// Result is what one session run produced.
type Result struct {
	Window  session.Window
	Summary *crawl.Summary
	Outputs []saver.Output
	Paths   []string
}

// Window resolves the session window from config: SESSION_DATE (or today in
// the exchange time zone), SESSION_OPEN, SESSION_LENGTH and GRANULARITY.
func (a *App) Window(now time.Time) (session.Window, error) {
	cfg := a.Config
	loc := a.Calendar.Loc
	date := a.Calendar.Today(now)
	if cfg.SessionDate != "" {
		d, err := session.ParseDate(cfg.SessionDate, loc)
		if err != nil {
			return session.Window{}, err
		}
		date = d
	}
	if !a.Calendar.IsTradingDay(date) {
		slog.Warn("session date is not a trading day, expect no data", "date", date.Format("2006-01-02"), "exchange", a.Calendar.MIC)
	}
	return session.New(date, cfg.SessionOpen, cfg.SessionLength, cfg.Granularity, loc)
}

// RunSession fetches every ticker, computes market and sector breadth and
// writes the three output tables. Per-ticker failures only shrink the
// result; the returned error is a run-level abort or a write failure.
func (a *App) RunSession(ctx context.Context, tickers []string, now time.Time) (*Result, error) {
	cfg := a.Config
	w, err := a.Window(now)
	if err != nil {
		return nil, err
	}
	slog.Info("session", "date", w.Date(), "open", w.Open.Format(time.RFC3339), "end", w.End().Format(time.RFC3339),
		"step", w.Step, "periods", w.Size(), "tickers", len(tickers), "provider", a.DP.GetName(), "sectors", a.Sectors.Name())

	summary, err := crawl.FetchSession(ctx, a.DP, a.Sectors, tickers, w, crawl.Options{
		Workers:       cfg.Workers,
		FetchTimeout:  cfg.FetchTimeout,
		SectorTimeout: cfg.SectorTimeout,
		Heartbeat:     cfg.Heartbeat,
		LogLevel:      slogx.ParseLevel(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch aborted: %w", err)
	}
	if len(summary.Success) == 0 {
		slog.Warn("no ticker returned data, writing empty tables", "requested", summary.Requested)
	}

	frame := breadth.Align(w, summary.Bars)
	market := breadth.Compute(frame)
	bySector := breadth.BySector(frame, summary.Sectors)
	for _, s := range bySector {
		slog.Debug("sector", "sector", s.Sector, "tickers", len(s.Tickers))
	}

	res := &Result{
		Window:  w,
		Summary: summary,
		Outputs: []saver.Output{
			{Kind: KindOHLCV, Table: ohlcvTable(frame)},
			{Kind: KindMarketIndicators, Table: marketTable(frame, market)},
			{Kind: KindSectorIndicators, Table: sectorTable(frame, bySector)},
		},
	}

	paths, err := saver.SaveAll(ctx, a.Saver, cfg.OutputDir, cfg.OutputPrefix, w.Date(), res.Outputs)
	if err != nil {
		return res, fmt.Errorf("write outputs: %w", err)
	}
	res.Paths = paths
	for i, out := range res.Outputs {
		rows, cols := out.Table.Shape()
		slog.Info("saved", "kind", out.Kind, "path", paths[i], "shape", fmt.Sprintf("%d x %d", rows, cols))
	}

	if cfg.WriteReport {
		if _, err := crawl.WriteReport(cfg.OutputDir, cfg.OutputPrefix, w.Date(), summary); err != nil {
			slog.Warn("could not write fetch report", "error", err)
		}
	}
	return res, nil
}
