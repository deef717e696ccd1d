// Package slogx builds the slog loggers used by the CLI and the fetch pool.
package slogx

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// lineWriter turns handler output into one channel message per line.
// A trailing partial line stays buffered until its newline arrives.
type lineWriter struct {
	ch      chan<- string
	mu      sync.Mutex
	pending []byte
	dropped atomic.Int64
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, p...)
	for {
		line, rest, ok := bytes.Cut(w.pending, []byte{'\n'})
		if !ok {
			break
		}
		select {
		case w.ch <- string(line):
		default:
			w.dropped.Add(1)
		}
		w.pending = rest
	}
	return len(p), nil
}

// ChanLogger is a text logger whose lines go to a channel for a single
// printer goroutine to drain. Lines are dropped, and counted, when the
// channel is full.
type ChanLogger struct {
	*slog.Logger
	w *lineWriter
}

// NewChanLogger returns a ChanLogger writing to ch at the given level.
// ch must stay open while the logger is in use.
func NewChanLogger(ch chan<- string, level slog.Leveler) *ChanLogger {
	w := &lineWriter{ch: ch}
	return &ChanLogger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
		w:      w,
	}
}

// Dropped reports how many lines were discarded because ch was full.
func (l *ChanLogger) Dropped() int64 { return l.w.dropped.Load() }

// ParseLevel reads LOG_LEVEL values: debug, info, warn (or warning), error,
// with slog offsets such as "info+2". Anything else is info.
func ParseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// NewDefault returns a stderr text logger at the named level.
func NewDefault(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}
