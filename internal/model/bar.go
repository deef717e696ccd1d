package model

import "time"

// Bar represents one OHLCV bar for a single ticker.
// Shared by providers, the fetch pool and the breadth aggregator.
type Bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume int64     `json:"v"`
}

// UnknownSector is the sector used when reference data has no answer for a ticker.
const UnknownSector = "Unknown"
