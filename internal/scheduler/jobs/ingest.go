package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adityakale/stockcast/internal/contracts"
	"github.com/adityakale/stockcast/internal/ingest"
)

// DailyIngest pulls the previous calendar day's bars from the bulk feed
// for all active instruments.
type DailyIngest struct {
	importer    *ingest.BulkImporter
	instruments contracts.InstrumentSource
	schedule    string
	log         zerolog.Logger
}

// NewDailyIngest creates the nightly ingest job
func NewDailyIngest(importer *ingest.BulkImporter, instruments contracts.InstrumentSource, schedule string, log zerolog.Logger) *DailyIngest {
	return &DailyIngest{
		importer:    importer,
		instruments: instruments,
		schedule:    schedule,
		log:         log.With().Str("component", "jobs.daily_ingest").Logger(),
	}
}

func (j *DailyIngest) Name() string     { return "daily-ingest" }
func (j *DailyIngest) Schedule() string { return j.schedule }

// Run imports bars for yesterday
func (j *DailyIngest) Run(ctx context.Context) error {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	instruments, err := j.instruments.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active instruments: %w", err)
	}

	report, err := j.importer.Run(ctx, instruments, day, day)
	if err != nil {
		return fmt.Errorf("bulk import for %s: %w", day.Format("2006-01-02"), err)
	}

	j.log.Info().
		Str("date", day.Format("2006-01-02")).
		Int("rows_loaded", report.RowsLoaded).
		Int("instruments_failed", report.InstrumentsFailed).
		Msg("nightly ingest finished")

	return nil
}
