package provider

import (
	"context"
	"time"

	"us-breadth/internal/model"
)

// DataProvider is the abstraction used by the application when accessing a market data source.
// Implementations are responsible for their own rate limiting and resource cleanup.
type DataProvider interface {
	GetName() string
	Close() error
	// SessionBars returns the ticker's bars in [from, to) at the given step,
	// with times in from's location. Empty results and errors are both
	// per-ticker outcomes; the caller decides what to drop.
	SessionBars(ctx context.Context, ticker string, from, to time.Time, step time.Duration) ([]model.Bar, error)
}

// LogFunc emits a log line (fan-in logger).
type LogFunc func(msg string)

// LogSink is implemented by providers that can route their diagnostics
// through the pool's fan-in logger.
type LogSink interface {
	SetLogFunc(fn LogFunc)
}
