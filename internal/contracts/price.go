package contracts

import (
	"math"
	"time"
)

// Source identifies which feed produced a price bar
type Source string

const (
	SourceBulkFeed Source = "BULK_FEED"
	SourceFileFeed Source = "FILE_FEED"
)

// PriceBar is one day's OHLCV record for an instrument.
// (InstrumentID, TradeDate) is the unique key; later ingestions for the same
// key overwrite all value fields, last write wins.
type PriceBar struct {
	InstrumentID int64     `json:"instrument_id"`
	TradeDate    time.Time `json:"trade_date"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       int64     `json:"volume"`
	Source       Source    `json:"source"`
}

// Validate checks the bar before it is allowed into the price store
func (b PriceBar) Validate() error {
	if b.InstrumentID <= 0 {
		return &ValidationError{Field: "instrument_id", Reason: "must be positive"}
	}
	if b.TradeDate.IsZero() {
		return &ValidationError{Field: "trade_date", Reason: "must be set"}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"open", b.Open},
		{"high", b.High},
		{"low", b.Low},
		{"close", b.Close},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ValidationError{Field: f.name, Reason: "must be finite"}
		}
	}
	if b.Volume < 0 {
		return &ValidationError{Field: "volume", Reason: "must not be negative"}
	}
	return nil
}

// RawBar is one daily bar as delivered by the bulk feed, before validation.
// Volume is a float because the feed reports it as nullable/NaN; the
// ingestion adapter maps non-numeric volume to zero.
type RawBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
