package saver

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/guregu/null/v6"
)

// CSVSaver writes a table as CSV. Entity-keyed tables get two header rows
// (entities, then fields); missing values are empty cells.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(t Table, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := csv.NewWriter(f)

	if t.HasEntities() {
		header := make([]string, 0, len(t.Columns)+1)
		header = append(header, "")
		for _, c := range t.Columns {
			header = append(header, c.Entity)
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}
	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, "timestamp")
	for _, c := range t.Columns {
		header = append(header, c.Field)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	record := make([]string, len(t.Columns)+1)
	for i, ts := range t.Index {
		record[0] = ts.Format(TimeLayout)
		for j, c := range t.Columns {
			var v null.Float
			if i < len(c.Values) {
				v = c.Values[i]
			}
			record[j+1] = floatStr(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func floatStr(f null.Float) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', -1, 64)
}
