package reference

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// fallbackUniverseFiles are tried in order when no universe file is configured
// or the configured one does not exist.
var fallbackUniverseFiles = []string{
	"indices/sp500.txt",
	"indices/combined.txt",
	"indices/tickers.json",
}

// defaultSP500 is the built-in S&P 500 list used when no file is found.
//
//go:embed data/sp500.txt
var defaultSP500 string

// DefaultUniverse returns the built-in S&P 500 constituents.
func DefaultUniverse() []string {
	return normalize(parseLines(defaultSP500))
}

// LoadUniverseFile reads the constituent list from a file.
// Supported formats:
//   - .txt  : one ticker per line, '#' lines are treated as comments
//   - .json : JSON array of strings
//
// Tickers are trimmed, upper-cased, stripped of '$' and de-duplicated
// keeping first occurrence order.
func LoadUniverseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file %s: %w", path, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read universe file: %w", err)
	}

	var raw []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("parse universe JSON: %w", err)
		}
	case ".txt":
		raw = parseLines(string(content))
	default:
		return nil, fmt.Errorf("unsupported universe file extension %q (use .txt or .json)", filepath.Ext(path))
	}

	tickers := normalize(raw)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("universe file %s has no tickers", path)
	}
	slog.Info("loaded universe", "count", len(tickers), "path", path)
	return tickers, nil
}

// LoadUniverse resolves the index constituents. An empty or missing path
// falls back to the indices/ files, then to the built-in S&P 500 list.
// An unreadable configured or fallback file is fatal for the run.
func LoadUniverse(path string) ([]string, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return LoadUniverseFile(path)
		}
		slog.Warn("universe file not found, trying indices", "path", path)
	}

	for _, p := range fallbackUniverseFiles {
		if _, err := os.Stat(p); err == nil {
			return LoadUniverseFile(p)
		}
	}
	tickers := DefaultUniverse()
	if len(tickers) == 0 {
		return nil, fmt.Errorf("universe unavailable: no file at %q, none of %v and empty built-in list", path, fallbackUniverseFiles)
	}
	slog.Info("loaded built-in universe", "count", len(tickers), "index", "S&P 500")
	return tickers, nil
}

func parseLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	return out
}

// NormalizeTicker trims, upper-cases and drops '$' from a symbol.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(t), "$", ""))
}

func normalize(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = NormalizeTicker(t)
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
