package saver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// TableSaver is the abstraction for persisting one output table.
// The orchestrator injects an implementation; the aggregator never sees it.
type TableSaver interface {
	Save(t Table, path string) error
	Extension() string
}

// NewTableSaver creates implementation by format (csv, parquet, json).
// Returns nil if format not supported.
func NewTableSaver(format string) TableSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// Output is one named table of a run.
type Output struct {
	Kind  string
	Table Table
}

// FileName returns <prefix>_<kind>_<date>.<ext>.
func FileName(prefix, kind, date, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix, kind, date, ext)
}

// SaveAll writes every output into dir and returns the written paths in
// output order.
func SaveAll(ctx context.Context, s TableSaver, dir, prefix, date string, outputs []Output) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, len(outputs))
	g, ctx := errgroup.WithContext(ctx)
	for i, out := range outputs {
		paths[i] = filepath.Join(dir, FileName(prefix, out.Kind, date, s.Extension()))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.Save(out.Table, paths[i]); err != nil {
				return fmt.Errorf("save %s: %w", out.Kind, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
