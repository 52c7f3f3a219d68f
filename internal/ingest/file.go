package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adityakale/stockcast/internal/contracts"
)

// FileColumns names the fields the file importer reads from each row.
// Extra columns in the file are ignored.
type FileColumns struct {
	Code   string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// BhavColumns matches the BSE bhav-copy layout
var BhavColumns = FileColumns{
	Code:   "FinInstrmId",
	Open:   "OpnPric",
	High:   "HghPric",
	Low:    "LwPric",
	Close:  "ClsPric",
	Volume: "TtlTradgVol",
}

// FileImporter loads one file-feed file covering a single trade date.
//
// Rows whose code does not resolve to a tracked instrument are silently
// skipped: the file covers a wider universe than the registry tracks. A
// parse failure skips the row with a message. Only an adapter-level failure
// (resolution mapping unavailable, unreadable file stream, storage fault)
// marks the batch FAILED.
type FileImporter struct {
	instruments contracts.InstrumentSource
	store       contracts.PriceStore
	uploads     contracts.UploadStore
	columns     FileColumns
	log         zerolog.Logger
}

// NewFileImporter creates a file importer using the given column layout
func NewFileImporter(
	instruments contracts.InstrumentSource,
	store contracts.PriceStore,
	uploads contracts.UploadStore,
	columns FileColumns,
	log zerolog.Logger,
) *FileImporter {
	return &FileImporter{
		instruments: instruments,
		store:       store,
		uploads:     uploads,
		columns:     columns,
		log:         log.With().Str("component", "ingest.file").Logger(),
	}
}

// FileReport summarizes one file upload batch
type FileReport struct {
	BatchID       int64
	Status        contracts.BatchStatus
	RecordsTotal  int
	RecordsLoaded int
	ErrorMessage  string
	Messages      []string
}

// Run ingests one file for targetDate. The batch outcome is persisted and
// returned in the report; the returned error is non-nil only when the batch
// summary row itself cannot be written.
func (i *FileImporter) Run(ctx context.Context, fileName string, targetDate time.Time, rows contracts.RowSource) (*FileReport, error) {
	batchID, err := i.uploads.CreateBatch(ctx, fileName, targetDate)
	if err != nil {
		return nil, fmt.Errorf("create upload batch: %w", err)
	}

	report := &FileReport{BatchID: batchID, Status: contracts.BatchSuccess}

	i.log.Info().
		Int64("batch_id", batchID).
		Str("file", fileName).
		Str("target_date", targetDate.Format("2006-01-02")).
		Msg("file import started")

	i.process(ctx, targetDate, rows, report)

	if err := i.uploads.FinishBatch(ctx, batchID, report.Status, report.RecordsTotal, report.RecordsLoaded, report.ErrorMessage); err != nil {
		return report, fmt.Errorf("finish upload batch: %w", err)
	}

	report.Messages = append([]string{
		fmt.Sprintf("upload status: %s, total rows=%d, loaded=%d", report.Status, report.RecordsTotal, report.RecordsLoaded),
	}, report.Messages...)

	i.log.Info().
		Int64("batch_id", batchID).
		Str("status", string(report.Status)).
		Int("records_total", report.RecordsTotal).
		Int("records_loaded", report.RecordsLoaded).
		Msg("file import completed")

	return report, nil
}

// process consumes all rows, mutating the report. Any adapter-level failure
// sets status FAILED with the triggering error and stops consumption.
func (i *FileImporter) process(ctx context.Context, targetDate time.Time, rows contracts.RowSource, report *FileReport) {
	instruments, err := i.instruments.ListActive(ctx)
	if err != nil {
		report.Status = contracts.BatchFailed
		report.ErrorMessage = fmt.Sprintf("load instrument mapping: %v", err)
		return
	}

	resolution := make(map[string]int64, len(instruments))
	for _, inst := range instruments {
		if inst.HasFileCode() {
			resolution[inst.FileCode] = inst.ID
		}
	}

	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			report.Status = contracts.BatchFailed
			report.ErrorMessage = fmt.Sprintf("read row: %v", err)
			return
		}

		report.RecordsTotal++

		code := strings.TrimSpace(row[i.columns.Code])
		if code == "" {
			continue
		}

		instrumentID, ok := resolution[code]
		if !ok {
			// Not in the tracked universe: not an error
			continue
		}

		bar, err := i.parseRow(instrumentID, targetDate, row)
		if err != nil {
			report.Messages = append(report.Messages, fmt.Sprintf("row error (code=%s): %v", code, err))
			continue
		}

		if err := i.store.Upsert(ctx, bar); err != nil {
			if contracts.IsValidation(err) {
				report.Messages = append(report.Messages, fmt.Sprintf("row error (code=%s): %v", code, err))
				continue
			}
			report.Status = contracts.BatchFailed
			report.ErrorMessage = fmt.Sprintf("upsert code=%s: %v", code, err)
			return
		}
		report.RecordsLoaded++
	}
}

// parseRow converts one string-keyed row into a canonical bar
func (i *FileImporter) parseRow(instrumentID int64, targetDate time.Time, row map[string]string) (contracts.PriceBar, error) {
	open, err := parsePrice(i.columns.Open, row)
	if err != nil {
		return contracts.PriceBar{}, err
	}
	high, err := parsePrice(i.columns.High, row)
	if err != nil {
		return contracts.PriceBar{}, err
	}
	low, err := parsePrice(i.columns.Low, row)
	if err != nil {
		return contracts.PriceBar{}, err
	}
	closeP, err := parsePrice(i.columns.Close, row)
	if err != nil {
		return contracts.PriceBar{}, err
	}
	volume, err := parsePrice(i.columns.Volume, row)
	if err != nil {
		return contracts.PriceBar{}, err
	}

	return contracts.PriceBar{
		InstrumentID: instrumentID,
		TradeDate:    targetDate,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        closeP,
		Volume:       int64(volume),
		Source:       contracts.SourceFileFeed,
	}, nil
}

// parsePrice reads a numeric field; an empty field counts as zero, matching
// the feed's convention for untraded instruments
func parsePrice(field string, row map[string]string) (float64, error) {
	raw := strings.TrimSpace(row[field])
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &contracts.ValidationError{Field: field, Reason: fmt.Sprintf("bad numeric literal %q", raw)}
	}
	return value, nil
}
