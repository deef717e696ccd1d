package saver

import (
	"github.com/parquet-go/parquet-go"
)

// parquetCell is one long-format row: a single value of one column at one
// timestamp. Rows are ordered by column (entity, field) then time.
type parquetCell struct {
	Timestamp int64    `parquet:"t"` // Unix timestamp in milliseconds
	Entity    string   `parquet:"entity"`
	Field     string   `parquet:"field"`
	Value     *float64 `parquet:"value,optional"`
}

// ParquetSaver writes a table as long-format Parquet. A table without
// columns writes one empty row per Index entry so the index survives.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(t Table, path string) error {
	return parquet.WriteFile(path, toCells(t))
}

func toCells(t Table) []parquetCell {
	if len(t.Columns) == 0 {
		cells := make([]parquetCell, len(t.Index))
		for i, ts := range t.Index {
			cells[i] = parquetCell{Timestamp: ts.UnixMilli()}
		}
		return cells
	}
	cells := make([]parquetCell, 0, len(t.Columns)*len(t.Index))
	for _, c := range t.Columns {
		for i, ts := range t.Index {
			cell := parquetCell{Timestamp: ts.UnixMilli(), Entity: c.Entity, Field: c.Field}
			if i < len(c.Values) && c.Values[i].Valid {
				v := c.Values[i].Float64
				cell.Value = &v
			}
			cells = append(cells, cell)
		}
	}
	return cells
}
