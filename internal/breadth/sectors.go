package breadth

import (
	"sort"

	"us-breadth/internal/model"
)

// SectorIndicators is the breadth series of one sector group.
type SectorIndicators struct {
	Sector  string
	Tickers []string
	Indicators
}

// GroupBySector partitions tickers by their sector. Tickers missing from
// sectors (or mapped to "") land in model.UnknownSector.
func GroupBySector(tickers []string, sectors map[string]string) map[string][]string {
	groups := make(map[string][]string)
	for _, t := range tickers {
		sec := sectors[t]
		if sec == "" {
			sec = model.UnknownSector
		}
		groups[sec] = append(groups[sec], t)
	}
	return groups
}

// BySector computes one indicator series per sector, sorted by sector name.
func BySector(f Frame, sectors map[string]string) []SectorIndicators {
	groups := GroupBySector(f.Tickers(), sectors)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]SectorIndicators, 0, len(names))
	for _, name := range names {
		out = append(out, SectorIndicators{
			Sector:     name,
			Tickers:    groups[name],
			Indicators: Compute(f.Subset(groups[name])),
		})
	}
	return out
}
