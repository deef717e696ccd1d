package session

import (
	"log/slog"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// ExchangeCalendar resolves the exchange time zone and trading days.
type ExchangeCalendar struct {
	MIC      string
	Loc      *time.Location
	cal      *calendar.Calendar
	fallback bool
}

// LoadCalendar returns the calendar for an ISO 10383 MIC (e.g. xnys).
// Unknown MICs fall back to Mon-Fri in America/New_York.
func LoadCalendar(mic string) *ExchangeCalendar {
	mic = strings.ToLower(strings.TrimSpace(mic))
	if mic == "" {
		mic = "xnys"
	}
	if cal := calendar.GetCalendar(mic); cal != nil && cal.Loc != nil {
		return &ExchangeCalendar{MIC: mic, Loc: cal.Loc, cal: cal}
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	slog.Warn("calendar not found, using Mon-Fri fallback", "mic", mic, "tz", loc.String())
	return &ExchangeCalendar{MIC: mic, Loc: loc, fallback: true}
}

// Today returns the current date in the exchange time zone.
func (c *ExchangeCalendar) Today(now time.Time) time.Time {
	n := now.In(c.Loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, c.Loc)
}

// IsTradingDay reports whether the exchange has a regular session on date.
func (c *ExchangeCalendar) IsTradingDay(date time.Time) bool {
	date = date.In(c.Loc)
	if c.fallback || c.cal == nil {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return c.cal.IsBusinessDay(date)
}
