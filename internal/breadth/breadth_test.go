package breadth

import (
	"math"
	"testing"
	"time"

	"us-breadth/internal/model"
	"us-breadth/internal/session"
)

var testOpen = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func testWindow(minutes int) session.Window {
	return session.Window{Open: testOpen, Length: time.Duration(minutes) * time.Minute, Step: time.Minute}
}

// barsFromCloses builds one bar per minute from closes; NaN skips the minute.
func barsFromCloses(closes []float64, volume int64) []model.Bar {
	var bars []model.Bar
	for i, c := range closes {
		if math.IsNaN(c) {
			continue
		}
		bars = append(bars, model.Bar{
			Time:   testOpen.Add(time.Duration(i) * time.Minute),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: volume,
		})
	}
	return bars
}

func threeTickerFrame() Frame {
	return Align(testWindow(5), map[string][]model.Bar{
		"A": barsFromCloses([]float64{10, 11, 12, 13, 14}, 100),
		"B": barsFromCloses([]float64{20, 19, 18, 17, 16}, 50),
		"C": barsFromCloses([]float64{5, 5, 5, 5, 5}, 10),
	})
}

func TestAlignGapStaysMissing(t *testing.T) {
	nan := math.NaN()
	f := Align(testWindow(5), map[string][]model.Bar{
		"B": barsFromCloses([]float64{1, 2, nan, 4, 5}, 7),
		"A": barsFromCloses([]float64{1, 1, 1, 1, 1}, 7),
	})

	if len(f.Index) != 5 {
		t.Fatalf("expected 5 index entries, got %d", len(f.Index))
	}
	if got := f.Tickers(); got[0] != "A" || got[1] != "B" {
		t.Fatalf("tickers not sorted: %v", got)
	}
	b := f.Series[1]
	for _, field := range Fields {
		if b.Field(field)[2].Valid {
			t.Errorf("%s at gap must be missing, got %v", field, b.Field(field)[2])
		}
	}
	if !b.Close[3].Valid || b.Close[3].Float64 != 4 {
		t.Errorf("unexpected close after gap: %v", b.Close[3])
	}
}

func TestAlignDropsOutOfWindowBars(t *testing.T) {
	bars := []model.Bar{
		{Time: testOpen.Add(-time.Minute), Close: 1},
		{Time: testOpen.Add(30 * time.Second), Close: 2},
		{Time: testOpen.Add(5 * time.Minute), Close: 3},
		{Time: testOpen.Add(time.Minute), Close: 4},
		{Time: testOpen.Add(time.Minute), Close: 5},
	}
	f := Align(testWindow(5), map[string][]model.Bar{"X": bars})
	s := f.Series[0]
	for i, v := range s.Close {
		if i == 1 {
			if !v.Valid || v.Float64 != 5 {
				t.Errorf("duplicate minute should keep last bar, got %v", v)
			}
			continue
		}
		if v.Valid {
			t.Errorf("slot %d should be missing, got %v", i, v)
		}
	}
}

func TestPctChange(t *testing.T) {
	nan := math.NaN()
	f := Align(testWindow(5), map[string][]model.Bar{"X": barsFromCloses([]float64{0, 2, nan, 4, 2}, 1)})
	ch := PctChange(f.Series[0].Close)

	if ch[0].Valid {
		t.Error("first period must be missing")
	}
	if ch[1].Valid {
		t.Error("change from a zero close must be missing")
	}
	if ch[2].Valid || ch[3].Valid {
		t.Error("gap and period after gap must be missing")
	}
	if !ch[4].Valid || ch[4].Float64 != -0.5 {
		t.Errorf("unexpected change %v", ch[4])
	}
}

func TestComputeEndToEndThreeTickers(t *testing.T) {
	ind := Compute(threeTickerFrame())

	wantAdv := []int{0, 1, 1, 1, 1}
	for k, row := range ind.Rows {
		if row.Advances != wantAdv[k] || row.Declines != wantAdv[k] || row.Unchanged != wantAdv[k] {
			t.Errorf("period %d: adv=%d dec=%d unch=%d", k, row.Advances, row.Declines, row.Unchanged)
		}
		if row.ADLine != 0 {
			t.Errorf("period %d: AD_Line = %d, want 0", k, row.ADLine)
		}
	}

	// A advances with 100/min, B declines with 50/min.
	last := ind.Rows[4]
	if last.UVOL != 400 || last.DVOL != 200 || last.VOLD != 200 {
		t.Errorf("unexpected volumes %+v", last)
	}
	if !last.VOLDRatio.Valid || last.VOLDRatio.Float64 != 2 {
		t.Errorf("unexpected ratio %v", last.VOLDRatio)
	}
	if ind.Rows[0].VOLDRatio.Valid {
		t.Error("ratio must be missing while DVOL is zero")
	}
}

func TestComputeADLineKnownDirections(t *testing.T) {
	f := Align(testWindow(3), map[string][]model.Bar{
		"A": barsFromCloses([]float64{10, 11, 12}, 1),
		"B": barsFromCloses([]float64{10, 11, 10}, 1),
		"C": barsFromCloses([]float64{10, 9, 10}, 1),
	})
	ind := Compute(f)

	// period 1: A+ B+ C-  -> +1; period 2: A+ B- C+ -> +1
	want := []int{0, 1, 2}
	sum := 0
	for k, row := range ind.Rows {
		sum += row.Advances - row.Declines
		if row.ADLine != sum || row.ADLine != want[k] {
			t.Errorf("period %d: AD_Line = %d, want %d", k, row.ADLine, want[k])
		}
		if k > 0 && row.Advances >= row.Declines && row.ADLine < ind.Rows[k-1].ADLine {
			t.Errorf("AD_Line decreased at %d although advances >= declines", k)
		}
	}
}

func TestComputeProperties(t *testing.T) {
	nan := math.NaN()
	f := Align(testWindow(6), map[string][]model.Bar{
		"A": barsFromCloses([]float64{10, 11, nan, 9, 9, 12}, 30),
		"B": barsFromCloses([]float64{nan, 5, 4, 4, 6, 5}, 20),
		"C": barsFromCloses([]float64{3, 2, 1, 2, nan, 2}, 10),
		"D": barsFromCloses([]float64{7, 7, 8, 6, 6, 6}, 40),
	})
	ind := Compute(f)
	size := len(f.Series)

	for k, row := range ind.Rows {
		if row.Advances+row.Declines+row.Unchanged > size {
			t.Errorf("period %d: counts exceed subset size", k)
		}
		if row.VOLD != row.UVOL-row.DVOL {
			t.Errorf("period %d: VOLD != UVOL-DVOL", k)
		}
		if row.DVOL == 0 && row.VOLDRatio.Valid {
			t.Errorf("period %d: ratio must be missing when DVOL is zero", k)
		}
		if k > 0 {
			prev := ind.Rows[k-1]
			if row.UVOL < prev.UVOL || row.DVOL < prev.DVOL {
				t.Errorf("period %d: UVOL/DVOL must be non-decreasing", k)
			}
		}
	}

	// Period 2: A missing, B -, C -, D +.
	if r := ind.Rows[2]; r.Advances != 1 || r.Declines != 2 || r.Unchanged != 0 {
		t.Errorf("gap ticker not excluded: %+v", r)
	}
}

func TestComputeEmptyFrame(t *testing.T) {
	f := Align(testWindow(4), nil)
	ind := Compute(f)
	if len(ind.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(ind.Rows))
	}
	for _, r := range ind.Rows {
		if r.Advances != 0 || r.VOLDRatio.Valid {
			t.Fatalf("unexpected row %+v", r)
		}
	}
}

func TestBySectorMatchesUniverse(t *testing.T) {
	f := Align(testWindow(5), map[string][]model.Bar{
		"A": barsFromCloses([]float64{10, 11, 12, 11, 14}, 100),
		"B": barsFromCloses([]float64{20, 19, 18, 19, 16}, 50),
		"C": barsFromCloses([]float64{5, 5, 6, 5, 5}, 10),
		"D": barsFromCloses([]float64{8, 9, 9, 9, 7}, 10),
	})
	sectors := map[string]string{"A": "Tech", "B": "Energy", "C": "Tech"}

	universe := Compute(f)
	groups := BySector(f, sectors)

	if len(groups) != 3 {
		t.Fatalf("expected 3 sectors, got %d", len(groups))
	}
	wantOrder := []string{"Energy", "Tech", "Unknown"}
	for i, g := range groups {
		if g.Sector != wantOrder[i] {
			t.Fatalf("sector %d = %s, want %s", i, g.Sector, wantOrder[i])
		}
	}

	for k := 1; k < len(f.Index); k++ {
		var adv, dec int
		for _, g := range groups {
			adv += g.Rows[k].Advances
			dec += g.Rows[k].Declines
		}
		if adv != universe.Rows[k].Advances || dec != universe.Rows[k].Declines {
			t.Errorf("period %d: sectors %d/%d != universe %d/%d", k, adv, dec, universe.Rows[k].Advances, universe.Rows[k].Declines)
		}
	}
}

func TestSubsetKeepsIndex(t *testing.T) {
	f := threeTickerFrame()
	sub := f.Subset([]string{"C", "Z"})
	if len(sub.Series) != 1 || sub.Series[0].Ticker != "C" {
		t.Fatalf("unexpected subset %v", sub.Tickers())
	}
	if len(sub.Index) != len(f.Index) {
		t.Fatal("subset must share the time index")
	}
}

func TestRowValue(t *testing.T) {
	r := Row{Advances: 2, Declines: 1, UVOL: 10, DVOL: 0}
	if v := r.Value(ColAdvances); !v.Valid || v.Float64 != 2 {
		t.Errorf("unexpected Advances %v", v)
	}
	if r.Value(ColVOLDRatio).Valid {
		t.Error("zero-DVOL ratio must be missing")
	}
	if r.Value("nope").Valid {
		t.Error("unknown column must be missing")
	}
}
