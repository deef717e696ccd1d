// Package session describes the intraday window a run analyses and the
// exchange calendar it is anchored to.
package session

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Window is the half-open interval [Open, Open+Length) sampled every Step.
type Window struct {
	Open   time.Time
	Length time.Duration
	Step   time.Duration
}

// New builds the window for date starting at openHHMM (exchange local time in loc).
func New(date time.Time, openHHMM string, length, step time.Duration, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	if step <= 0 {
		return Window{}, fmt.Errorf("session step must be positive, got %s", step)
	}
	if length < step {
		return Window{}, fmt.Errorf("session length %s shorter than step %s", length, step)
	}
	clock, err := time.Parse("15:04", openHHMM)
	if err != nil {
		return Window{}, fmt.Errorf("parse session open %q: %w", openHHMM, err)
	}
	d := date.In(loc)
	open := time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	return Window{Open: open, Length: length, Step: step}, nil
}

// End is the first instant after the window.
func (w Window) End() time.Time {
	return w.Open.Add(w.Length)
}

// Size is the number of Time Index entries.
func (w Window) Size() int {
	if w.Step <= 0 {
		return 0
	}
	n := int(w.Length / w.Step)
	if w.Length%w.Step != 0 {
		n++
	}
	return n
}

// Index returns every step in [Open, End) in the window's location.
func (w Window) Index() []time.Time {
	idx := make([]time.Time, 0, w.Size())
	end := w.End()
	for t := w.Open; t.Before(end); t = t.Add(w.Step) {
		idx = append(idx, t)
	}
	return idx
}

// Slot maps t to its Time Index position. Off-grid or out-of-window
// timestamps report false.
func (w Window) Slot(t time.Time) (int, bool) {
	if w.Step <= 0 || t.Before(w.Open) || !t.Before(w.End()) {
		return 0, false
	}
	d := t.Sub(w.Open)
	if d%w.Step != 0 {
		return 0, false
	}
	return int(d / w.Step), true
}

// Date is the session date (YYYY-MM-DD) used to name output files.
func (w Window) Date() string {
	return w.Open.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse session date %q: %w", s, err)
	}
	return t, nil
}
