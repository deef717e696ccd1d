package breadth

import (
	"time"

	"github.com/guregu/null/v6"
)

// Indicator column names, in output order.
const (
	ColAdvances  = "Advances"
	ColDeclines  = "Declines"
	ColUnchanged = "Unchanged"
	ColADLine    = "AD_Line"
	ColUVOL      = "UVOL"
	ColDVOL      = "DVOL"
	ColVOLD      = "VOLD"
	ColVOLDRatio = "VOLD_Ratio"
)

// Columns lists the indicator names in column order.
var Columns = []string{ColAdvances, ColDeclines, ColUnchanged, ColADLine, ColUVOL, ColDVOL, ColVOLD, ColVOLDRatio}

// Row holds the breadth statistics of one period. UVOL, DVOL and VOLD are
// running totals since the first period.
type Row struct {
	Advances  int
	Declines  int
	Unchanged int
	ADLine    int
	UVOL      float64
	DVOL      float64
	VOLD      float64
	VOLDRatio null.Float // invalid while DVOL is zero
}

// Value returns the named column as a nullable float.
func (r Row) Value(col string) null.Float {
	switch col {
	case ColAdvances:
		return null.FloatFrom(float64(r.Advances))
	case ColDeclines:
		return null.FloatFrom(float64(r.Declines))
	case ColUnchanged:
		return null.FloatFrom(float64(r.Unchanged))
	case ColADLine:
		return null.FloatFrom(float64(r.ADLine))
	case ColUVOL:
		return null.FloatFrom(r.UVOL)
	case ColDVOL:
		return null.FloatFrom(r.DVOL)
	case ColVOLD:
		return null.FloatFrom(r.VOLD)
	case ColVOLDRatio:
		return r.VOLDRatio
	default:
		return null.Float{}
	}
}

// Indicators is one breadth series, one Row per Index entry.
type Indicators struct {
	Index []time.Time
	Rows  []Row
}

// PctChange returns the period-over-period relative change of closes.
// The first period, periods where either close is missing, and periods
// following a zero close are missing.
func PctChange(closes []null.Float) []null.Float {
	out := make([]null.Float, len(closes))
	for k := 1; k < len(closes); k++ {
		prev, cur := closes[k-1], closes[k]
		if !prev.Valid || !cur.Valid || prev.Float64 == 0 {
			continue
		}
		out[k] = null.FloatFrom((cur.Float64 - prev.Float64) / prev.Float64)
	}
	return out
}

// Compute derives the breadth indicators of every ticker in f.
// Universe-wide and per-sector series both go through here.
func Compute(f Frame) Indicators {
	n := len(f.Index)
	ind := Indicators{Index: f.Index, Rows: make([]Row, n)}

	changes := make([][]null.Float, len(f.Series))
	for i, s := range f.Series {
		changes[i] = PctChange(s.Close)
	}

	var adLine int
	var uvol, dvol float64
	for k := 0; k < n; k++ {
		row := &ind.Rows[k]
		var upVol, downVol float64
		for i, s := range f.Series {
			ch := changes[i][k]
			if !ch.Valid {
				continue
			}
			vol := s.Volume[k].ValueOrZero()
			switch {
			case ch.Float64 > 0:
				row.Advances++
				upVol += vol
			case ch.Float64 < 0:
				row.Declines++
				downVol += vol
			default:
				row.Unchanged++
			}
		}
		adLine += row.Advances - row.Declines
		uvol += upVol
		dvol += downVol

		row.ADLine = adLine
		row.UVOL = uvol
		row.DVOL = dvol
		row.VOLD = uvol - dvol
		if dvol != 0 {
			row.VOLDRatio = null.FloatFrom(uvol / dvol)
		}
	}
	return ind
}
