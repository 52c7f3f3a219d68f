package contracts

import (
	"context"
	"time"
)

// PriceStore owns the canonical per-instrument, per-date OHLCV series
type PriceStore interface {
	// Upsert writes a bar idempotently: repeated calls with the same
	// (instrument, date) key converge to the latest values. Returns a
	// ValidationError for malformed bars; any other error is a storage fault.
	Upsert(ctx context.Context, bar PriceBar) error

	// ReadRecent returns at most maxBars most recent bars, ascending by
	// trade date. An unknown instrument yields an empty slice, not an error.
	ReadRecent(ctx context.Context, instrumentID int64, maxBars int) ([]PriceBar, error)
}

// InstrumentSource supplies the active instrument set from the registry
type InstrumentSource interface {
	ListActive(ctx context.Context) ([]Instrument, error)
}

// BarDownloader fetches daily bars for one instrument over an inclusive
// date range from an external feed
type BarDownloader interface {
	Download(ctx context.Context, code string, from, to time.Time) ([]RawBar, error)
}

// RowSource yields string-keyed rows of a tabular file feed one at a time.
// Next returns io.EOF after the last row.
type RowSource interface {
	Next() (map[string]string, error)
}

// RunStore persists forecast runs and their results
type RunStore interface {
	CreateRun(ctx context.Context, startedAt time.Time, label string) (int64, error)
	CompleteRun(ctx context.Context, runID int64, status RunStatus, errorMessage string) error
	SaveResult(ctx context.Context, result ForecastResult) error
}

// UploadStore persists file upload batch summaries
type UploadStore interface {
	CreateBatch(ctx context.Context, fileName string, targetDate time.Time) (int64, error)
	FinishBatch(ctx context.Context, batchID int64, status BatchStatus, recordsTotal, recordsLoaded int, errorMessage string) error
}
