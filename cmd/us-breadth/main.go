package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"us-breadth/internal/app"
	"us-breadth/internal/reference"
	"us-breadth/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	date := flag.String("date", "", "session date YYYY-MM-DD (default: today in the exchange time zone)")
	flag.Parse()

	a, err := InitializeApp(app.Overrides{SessionDate: *date})
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer a.DP.Close()

	cfg := a.Config
	slog.SetDefault(slogx.NewDefault(cfg.LogLevel))
	slog.Info("using data provider", "provider", a.DP.GetName(), "sectors", a.Sectors.Name(), "exchange", a.Calendar.MIC)

	tickers, err := reference.LoadUniverse(cfg.UniverseFile)
	if err != nil {
		slog.Error("failed to get universe", "error", err)
		a.DP.Close()
		os.Exit(1)
	}
	slog.Info("got tickers", "count", len(tickers))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := a.RunSession(ctx, tickers, time.Now())
	if err != nil {
		slog.Error("run failed", "error", err)
		stop()
		a.DP.Close()
		os.Exit(1)
	}
	slog.Info("done", "date", res.Window.Date(), "success", len(res.Summary.Success), "failed", len(res.Summary.Failed), "dir", cfg.OutputDir)
}
