package polygon

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"us-breadth/internal/model"
)

// aggBar is one element of an aggregates response. Volume may arrive as
// an integer, a float in scientific notation or a quoted number.
type aggBar struct {
	StartMillis int64    `json:"t"`
	Open        float64  `json:"o"`
	High        float64  `json:"h"`
	Low         float64  `json:"l"`
	Close       float64  `json:"c"`
	Volume      looseInt `json:"v"`
}

// ToBar converts the bar to model.Bar with its time in loc.
func (b aggBar) ToBar(loc *time.Location) model.Bar {
	return model.Bar{
		Time:   time.UnixMilli(b.StartMillis).In(loc),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: int64(b.Volume),
	}
}

// AggregatesResponse holds the fields of /v2/aggs the client reads.
type AggregatesResponse struct {
	Status  string   `json:"status"`
	Ticker  string   `json:"ticker"`
	Results []aggBar `json:"results"`
}

// looseInt decodes a JSON number or numeric string, truncating to int64.
type looseInt int64

func (n *looseInt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = looseInt(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("volume %s: not a number", data)
	}
	*n = looseInt(v)
	return nil
}
