package crawl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"us-breadth/internal/model"
	"us-breadth/internal/provider"
	"us-breadth/internal/reference"
	"us-breadth/internal/session"
	"us-breadth/internal/slogx"
)

const (
	DefaultWorkers   = 4
	DefaultHeartbeat = 30 * time.Second
)

// Options tunes the fetch pool.
type Options struct {
	Workers       int
	FetchTimeout  time.Duration // per-ticker bound on the bars request
	SectorTimeout time.Duration // per-ticker bound on the sector lookup
	Heartbeat     time.Duration
	LogLevel      slog.Level
	LogOutput     io.Writer // fan-in log destination; nil means stderr
}

// JobResult is sent by workers for fan-in
type JobResult struct {
	Ok      bool
	Ticker  string
	Reason  string
	Bars    []model.Bar
	Sector  string
	Elapsed time.Duration
}

// Summary is the outcome of one fetch run. Bars and Sectors hold only
// tickers that returned data.
type Summary struct {
	Provider  string
	Requested int
	Success   []string
	Failed    []FailedEntry
	Bars      map[string][]model.Bar
	Sectors   map[string]string
	TotalBars int
}

func newSummary(providerName string, requested int) *Summary {
	return &Summary{
		Provider:  providerName,
		Requested: requested,
		Bars:      make(map[string][]model.Bar),
		Sectors:   make(map[string]string),
	}
}

func runJobResultCollector(results <-chan JobResult, mu *sync.Mutex, s *Summary) {
	for r := range results {
		mu.Lock()
		if r.Ok {
			s.Success = append(s.Success, r.Ticker)
			s.Bars[r.Ticker] = r.Bars
			s.Sectors[r.Ticker] = r.Sector
			s.TotalBars += len(r.Bars)
		} else {
			s.Failed = append(s.Failed, FailedEntry{Ticker: r.Ticker, Reason: r.Reason})
		}
		mu.Unlock()
	}
}

// FetchSession fetches bars and sector for every ticker with a bounded
// worker pool. A ticker failure never affects the others; the returned
// error is non-nil only when ctx is cancelled before all jobs ran.
func FetchSession(
	ctx context.Context,
	dp provider.DataProvider,
	sectors reference.SectorSource,
	tickers []string,
	w session.Window,
	opts Options,
) (*Summary, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	if workers > len(tickers) && len(tickers) > 0 {
		workers = len(tickers)
	}
	heartbeat := opts.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}

	logs := make(chan string, 2048)
	chanLogger := slogx.NewChanLogger(logs, opts.LogLevel)
	logger := chanLogger.Logger
	errs := make(chan errorEntry, 64)
	var logWg sync.WaitGroup
	logWg.Add(1)
	go func() {
		defer logWg.Done()
		runLogWriter(logs, out)
	}()
	var errWg sync.WaitGroup
	errWg.Add(1)
	go func() {
		defer errWg.Done()
		runErrorHandler(errs, logger)
	}()

	defer func() {
		close(errs)
		errWg.Wait()
		close(logs)
		logWg.Wait()
		if n := chanLogger.Dropped(); n > 0 {
			slog.Warn("fetch log lines dropped", "count", n)
		}
	}()
	if ls, ok := dp.(provider.LogSink); ok {
		ls.SetLogFunc(func(msg string) { logger.Debug(msg) })
		defer ls.SetLogFunc(nil)
	}

	pending := make(chan string, len(tickers))
	for _, t := range tickers {
		pending <- t
	}
	close(pending)

	summary := newSummary(dp.GetName(), len(tickers))
	results := make(chan JobResult, len(tickers)+1)
	var mu sync.Mutex
	var resWg sync.WaitGroup
	resWg.Add(1)
	go func() {
		defer resWg.Done()
		runJobResultCollector(results, &mu, summary)
	}()

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	var hbWg sync.WaitGroup
	hbWg.Add(1)
	go func() {
		defer hbWg.Done()
		runHeartbeat(hbCtx, heartbeat, len(tickers), &mu, summary, logger)
	}()

	logger.Info("fetch start", "provider", dp.GetName(), "tickers", len(tickers), "workers", workers,
		"from", w.Open.Format(time.RFC3339), "to", w.End().Format(time.RFC3339), "step", w.Step)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ticker, ok := <-pending:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}
					r, err := fetchOne(ctx, dp, sectors, ticker, w, opts, logger)
					switch {
					case r.Ok:
						logger.Info("fetch ok", "ticker", ticker, "bars", len(r.Bars), "sector", r.Sector, "elapsed", r.Elapsed.Round(time.Millisecond))
					case err != nil:
						select {
						case errs <- errorEntry{Ticker: ticker, Err: err}:
						default:
							logger.Error("fetch fail", "ticker", ticker, "reason", r.Reason)
						}
					default:
						logger.Error("fetch fail", "ticker", ticker, "reason", r.Reason)
					}
					results <- r
				}
			}
		}()
	}
	wg.Wait()
	close(results)
	resWg.Wait()
	stopHeartbeat()
	hbWg.Wait()

	sort.Strings(summary.Success)
	sort.Slice(summary.Failed, func(i, j int) bool { return summary.Failed[i].Ticker < summary.Failed[j].Ticker })

	logger.Info("summary", "total_bars", summary.TotalBars, "success", len(summary.Success), "failed", len(summary.Failed), "requested", summary.Requested)
	if len(summary.Failed) > 0 {
		logger.Info("summary failed", "count", len(summary.Failed), "reasons", joinFailedReasons(summary.Failed))
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// fetchOne runs one ticker job. The error is the provider's, if any.
func fetchOne(ctx context.Context, dp provider.DataProvider, sectors reference.SectorSource, ticker string, w session.Window, opts Options, logger *slog.Logger) (JobResult, error) {
	start := time.Now()
	jobCtx := ctx
	cancel := context.CancelFunc(func() {})
	if opts.FetchTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, opts.FetchTimeout)
	}
	bars, err := dp.SessionBars(jobCtx, ticker, w.Open, w.End(), w.Step)
	cancel()

	r := JobResult{Ticker: ticker, Elapsed: time.Since(start)}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		r.Reason = "timeout: " + err.Error()
		return r, err
	case err != nil:
		r.Reason = err.Error()
		return r, err
	case len(bars) == 0:
		r.Reason = "no data"
		return r, nil
	}
	r.Ok = true
	r.Bars = bars
	r.Sector = reference.SectorOrUnknown(ctx, sectors, ticker, opts.SectorTimeout, logger)
	r.Elapsed = time.Since(start)
	return r, nil
}
