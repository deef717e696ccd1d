package app

import (
	"github.com/guregu/null/v6"

	"us-breadth/internal/breadth"
	"us-breadth/internal/saver"
)

// Output kinds, used in file names.
const (
	KindOHLCV            = "ohlcv"
	KindMarketIndicators = "market_indicators"
	KindSectorIndicators = "sector_indicators"
)

// ohlcvTable lays out the frame ticker first, field second.
func ohlcvTable(f breadth.Frame) saver.Table {
	t := saver.Table{Index: f.Index, Columns: make([]saver.Column, 0, len(f.Series)*len(breadth.Fields))}
	for _, s := range f.Series {
		for _, field := range breadth.Fields {
			t.Columns = append(t.Columns, saver.Column{Entity: s.Ticker, Field: field, Values: s.Field(field)})
		}
	}
	return t
}

func indicatorColumns(entity string, ind breadth.Indicators) []saver.Column {
	cols := make([]saver.Column, 0, len(breadth.Columns))
	for _, name := range breadth.Columns {
		values := make([]null.Float, len(ind.Rows))
		for i, r := range ind.Rows {
			values[i] = r.Value(name)
		}
		cols = append(cols, saver.Column{Entity: entity, Field: name, Values: values})
	}
	return cols
}

// marketTable has one column per indicator. With no tickers it keeps only
// the Index.
func marketTable(f breadth.Frame, ind breadth.Indicators) saver.Table {
	t := saver.Table{Index: f.Index}
	if len(f.Series) > 0 {
		t.Columns = indicatorColumns("", ind)
	}
	return t
}

// sectorTable lays out the sector series sector first, indicator second.
func sectorTable(f breadth.Frame, sectors []breadth.SectorIndicators) saver.Table {
	t := saver.Table{Index: f.Index}
	for _, s := range sectors {
		t.Columns = append(t.Columns, indicatorColumns(s.Sector, s.Indicators)...)
	}
	return t
}
