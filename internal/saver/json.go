package saver

import (
	"encoding/json"
	"os"

	"github.com/guregu/null/v6"
)

type jsonColumn struct {
	Entity string       `json:"entity,omitempty"`
	Field  string       `json:"field"`
	Values []null.Float `json:"values"`
}

type jsonTable struct {
	Index   []string     `json:"index"`
	Columns []jsonColumn `json:"columns"`
}

// JSONSaver writes a table as indented JSON; missing values are null.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(t Table, path string) (err error) {
	out := jsonTable{
		Index:   make([]string, len(t.Index)),
		Columns: make([]jsonColumn, len(t.Columns)),
	}
	for i, ts := range t.Index {
		out.Index[i] = ts.Format(TimeLayout)
	}
	for i, c := range t.Columns {
		out.Columns[i] = jsonColumn{Entity: c.Entity, Field: c.Field, Values: c.Values}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
