package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

func runLogWriter(lines <-chan string, out io.Writer) {
	for s := range lines {
		fmt.Fprintln(out, s)
	}
}

type errorEntry struct {
	Ticker string
	Err    error
}

func runErrorHandler(errors <-chan errorEntry, logger *slog.Logger) {
	for e := range errors {
		logger.Error("fetch error", "ticker", e.Ticker, "error", e.Err)
	}
}

func runHeartbeat(ctx context.Context, interval time.Duration, total int, mu *sync.Mutex, s *Summary, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mu.Lock()
			ok, failed, bars := len(s.Success), len(s.Failed), s.TotalBars
			mu.Unlock()
			logger.Info("heartbeat", "done", ok+failed, "total", total, "success", ok, "failed", failed, "bars", bars)
		}
	}
}
