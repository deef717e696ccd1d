package saver

import (
	"time"

	"github.com/guregu/null/v6"
)

// TimeLayout is how Time Index entries are rendered in text formats.
const TimeLayout = "2006-01-02 15:04:05-07:00"

// Column is one (entity, field) column. Entity is empty for tables keyed by
// field only, such as the market-wide indicators.
type Column struct {
	Entity string
	Field  string
	Values []null.Float
}

// Table is a Time Index plus columns grouped entity first, field second.
// A table with no columns still carries its Index.
type Table struct {
	Index   []time.Time
	Columns []Column
}

// HasEntities reports whether any column is keyed by an entity, which adds
// an entity header row in text formats.
func (t Table) HasEntities() bool {
	for _, c := range t.Columns {
		if c.Entity != "" {
			return true
		}
	}
	return false
}

// Shape returns (rows, data columns).
func (t Table) Shape() (int, int) {
	return len(t.Index), len(t.Columns)
}
