package crawl

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FailedEntry records why one ticker was dropped.
type FailedEntry struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

type runReport struct {
	Date      string        `json:"date"`
	Provider  string        `json:"provider"`
	Requested int           `json:"requested"`
	TotalBars int           `json:"total_bars"`
	Success   []string      `json:"success"`
	Failed    []FailedEntry `json:"failed"`
}

// ReportName returns <prefix>_fetch_report_<date>.json.
func ReportName(prefix, date string) string {
	return fmt.Sprintf("%s_fetch_report_%s.json", prefix, date)
}

// WriteReport writes the per-run fetch report into dir and returns its path.
func WriteReport(dir, prefix, date string, s *Summary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	rep := runReport{
		Date:      date,
		Provider:  s.Provider,
		Requested: s.Requested,
		TotalBars: s.TotalBars,
		Success:   s.Success,
		Failed:    s.Failed,
	}
	if rep.Success == nil {
		rep.Success = []string{}
	}
	if rep.Failed == nil {
		rep.Failed = []FailedEntry{}
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, ReportName(prefix, date))
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", err
	}
	slog.Info("report written", "path", p, "success", len(rep.Success), "failed", len(rep.Failed))
	return p, nil
}

func joinFailedReasons(failedList []FailedEntry) string {
	if len(failedList) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range failedList {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Ticker)
		b.WriteString(": ")
		b.WriteString(f.Reason)
		if i >= 4 && len(failedList) > 6 {
			b.WriteString(fmt.Sprintf(" (+%d more)", len(failedList)-5))
			break
		}
	}
	return b.String()
}
