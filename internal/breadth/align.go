// Package breadth aligns per-ticker bar series on a shared Time Index and
// computes cross-sectional breadth indicators from them.
package breadth

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"

	"us-breadth/internal/model"
	"us-breadth/internal/session"
)

// OHLCV field names, in output order.
const (
	FieldOpen   = "Open"
	FieldHigh   = "High"
	FieldLow    = "Low"
	FieldClose  = "Close"
	FieldVolume = "Volume"
)

// Fields lists the per-ticker fields of a Frame in column order.
var Fields = []string{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}

// Series is one ticker reindexed onto a Frame's Time Index.
// Absent observations are invalid values, never zero.
type Series struct {
	Ticker string
	Open   []null.Float
	High   []null.Float
	Low    []null.Float
	Close  []null.Float
	Volume []null.Float
}

func newSeries(ticker string, n int) Series {
	return Series{
		Ticker: ticker,
		Open:   make([]null.Float, n),
		High:   make([]null.Float, n),
		Low:    make([]null.Float, n),
		Close:  make([]null.Float, n),
		Volume: make([]null.Float, n),
	}
}

// Field returns the values of the named field.
func (s Series) Field(name string) []null.Float {
	switch name {
	case FieldOpen:
		return s.Open
	case FieldHigh:
		return s.High
	case FieldLow:
		return s.Low
	case FieldClose:
		return s.Close
	case FieldVolume:
		return s.Volume
	default:
		return nil
	}
}

// Frame is the combined OHLCV table: every series shares Index.
type Frame struct {
	Index  []time.Time
	Series []Series // sorted by ticker
}

// Tickers returns the frame's tickers in canonical order.
func (f Frame) Tickers() []string {
	out := make([]string, len(f.Series))
	for i, s := range f.Series {
		out[i] = s.Ticker
	}
	return out
}

// Subset returns a frame restricted to tickers, sharing the same Index.
// Unknown tickers are ignored.
func (f Frame) Subset(tickers []string) Frame {
	want := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		want[t] = true
	}
	sub := Frame{Index: f.Index}
	for _, s := range f.Series {
		if want[s.Ticker] {
			sub.Series = append(sub.Series, s)
		}
	}
	return sub
}

// Align reindexes every ticker's bars onto w's Time Index. Bars outside the
// window or off the step grid are dropped; for duplicate timestamps the last
// bar wins. Tickers are sorted so completion order of fetches never matters.
func Align(w session.Window, bars map[string][]model.Bar) Frame {
	index := w.Index()
	tickers := make([]string, 0, len(bars))
	for t := range bars {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	f := Frame{Index: index, Series: make([]Series, 0, len(tickers))}
	for _, t := range tickers {
		s := newSeries(t, len(index))
		for _, b := range bars[t] {
			i, ok := w.Slot(b.Time)
			if !ok {
				continue
			}
			s.Open[i] = null.FloatFrom(b.Open)
			s.High[i] = null.FloatFrom(b.High)
			s.Low[i] = null.FloatFrom(b.Low)
			s.Close[i] = null.FloatFrom(b.Close)
			s.Volume[i] = null.FloatFrom(float64(b.Volume))
		}
		f.Series = append(f.Series, s)
	}
	return f
}
