package ingest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adityakale/stockcast/internal/contracts"
)

// BulkImporter pulls daily bars from the bulk download feed for every active
// instrument with a bulk-feed code and upserts them into the price store.
//
// A failed or empty download is a per-instrument failure: recorded and
// skipped. A malformed bar is a per-row failure: recorded and skipped.
// Only a storage fault aborts the batch.
type BulkImporter struct {
	source  contracts.BarDownloader
	store   contracts.PriceStore
	workers int
	log     zerolog.Logger
}

// NewBulkImporter creates a bulk importer with the given worker count
func NewBulkImporter(source contracts.BarDownloader, store contracts.PriceStore, workers int, log zerolog.Logger) *BulkImporter {
	if workers < 1 {
		workers = 1
	}
	return &BulkImporter{
		source:  source,
		store:   store,
		workers: workers,
		log:     log.With().Str("component", "ingest.bulk").Logger(),
	}
}

// BulkReport summarizes one bulk import batch
type BulkReport struct {
	Instruments       int // instruments with a bulk-feed code
	InstrumentsFailed int // downloads that failed or came back empty
	RowsLoaded        int
	RowsSkipped       int // malformed rows
	Messages          []string
}

type instrumentOutcome struct {
	symbol   string
	loaded   int
	skipped  int
	failed   bool
	messages []string
}

// Run imports bars for [from, to] inclusive across all eligible instruments.
// The returned error is non-nil only for a batch-aborting fault; everything
// row- or instrument-level lands in the report.
func (i *BulkImporter) Run(ctx context.Context, instruments []contracts.Instrument, from, to time.Time) (*BulkReport, error) {
	var eligible []contracts.Instrument
	for _, inst := range instruments {
		if inst.HasBulkCode() {
			eligible = append(eligible, inst)
		}
	}

	i.log.Info().
		Int("instruments", len(eligible)).
		Str("from", from.Format("2006-01-02")).
		Str("to", to.Format("2006-01-02")).
		Int("workers", i.workers).
		Msg("bulk import started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var fatalOnce sync.Once
	var fatalErr error
	setFatal := func(err error) {
		fatalOnce.Do(func() {
			fatalErr = err
			cancel()
		})
	}

	jobs := make(chan contracts.Instrument, len(eligible))
	outcomes := make(chan instrumentOutcome, len(eligible))

	var wg sync.WaitGroup
	for w := 0; w < i.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				outcomes <- i.importInstrument(ctx, inst, from, to, setFatal)
			}
		}()
	}

	for _, inst := range eligible {
		jobs <- inst
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	report := &BulkReport{Instruments: len(eligible)}
	collected := make([]instrumentOutcome, 0, len(eligible))
	for out := range outcomes {
		collected = append(collected, out)
	}
	// Stable message order regardless of worker interleaving
	sort.Slice(collected, func(a, b int) bool { return collected[a].symbol < collected[b].symbol })
	for _, out := range collected {
		report.RowsLoaded += out.loaded
		report.RowsSkipped += out.skipped
		if out.failed {
			report.InstrumentsFailed++
		}
		report.Messages = append(report.Messages, out.messages...)
	}

	if fatalErr != nil {
		i.log.Error().Err(fatalErr).Msg("bulk import aborted")
		return report, fatalErr
	}

	i.log.Info().
		Int("rows_loaded", report.RowsLoaded).
		Int("rows_skipped", report.RowsSkipped).
		Int("instruments_failed", report.InstrumentsFailed).
		Msg("bulk import completed")

	return report, nil
}

// importInstrument downloads and upserts one instrument's bars. Storage
// faults are reported through setFatal; everything else is recorded in the
// outcome and recovered locally.
func (i *BulkImporter) importInstrument(ctx context.Context, inst contracts.Instrument, from, to time.Time, setFatal func(error)) instrumentOutcome {
	out := instrumentOutcome{symbol: inst.Symbol}

	raws, err := i.source.Download(ctx, inst.BulkCode, from, to)
	if err != nil {
		out.failed = true
		out.messages = append(out.messages, fmt.Sprintf("%s: fetch failed: %v", inst.BulkCode, err))
		i.log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("download failed")
		return out
	}
	if len(raws) == 0 {
		out.failed = true
		out.messages = append(out.messages, fmt.Sprintf("%s: no data returned", inst.BulkCode))
		return out
	}

	for _, raw := range raws {
		bar := rawToBar(inst.ID, raw)
		if err := i.store.Upsert(ctx, bar); err != nil {
			if contracts.IsValidation(err) {
				out.skipped++
				out.messages = append(out.messages,
					fmt.Sprintf("%s: bad row on %s: %v", inst.BulkCode, raw.Date.Format("2006-01-02"), err))
				continue
			}
			setFatal(fmt.Errorf("upsert %s %s: %w", inst.Symbol, raw.Date.Format("2006-01-02"), err))
			return out
		}
		out.loaded++
	}

	out.messages = append(out.messages, fmt.Sprintf("%s: imported/updated %d rows", inst.BulkCode, out.loaded))
	return out
}

// rawToBar converts a feed bar to a canonical one. Non-numeric volume from
// the feed counts as zero.
func rawToBar(instrumentID int64, raw contracts.RawBar) contracts.PriceBar {
	volume := int64(0)
	if !math.IsNaN(raw.Volume) && !math.IsInf(raw.Volume, 0) && raw.Volume > 0 {
		volume = int64(raw.Volume)
	}
	return contracts.PriceBar{
		InstrumentID: instrumentID,
		TradeDate:    raw.Date,
		Open:         raw.Open,
		High:         raw.High,
		Low:          raw.Low,
		Close:        raw.Close,
		Volume:       volume,
		Source:       contracts.SourceBulkFeed,
	}
}
