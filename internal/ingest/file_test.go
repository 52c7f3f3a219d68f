package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakale/stockcast/internal/contracts"
)

type fakeInstruments struct {
	instruments []contracts.Instrument
	err         error
}

func (f *fakeInstruments) ListActive(ctx context.Context) ([]contracts.Instrument, error) {
	return f.instruments, f.err
}

type sliceRows struct {
	rows []map[string]string
	pos  int
	err  error // returned after the rows are exhausted, instead of EOF
}

func (s *sliceRows) Next() (map[string]string, error) {
	if s.pos >= len(s.rows) {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

type fakeUploads struct {
	nextID   int64
	finished map[int64]contracts.UploadBatch
}

func newFakeUploads() *fakeUploads {
	return &fakeUploads{nextID: 7, finished: make(map[int64]contracts.UploadBatch)}
}

func (f *fakeUploads) CreateBatch(ctx context.Context, fileName string, targetDate time.Time) (int64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeUploads) FinishBatch(ctx context.Context, batchID int64, status contracts.BatchStatus, recordsTotal, recordsLoaded int, errorMessage string) error {
	f.finished[batchID] = contracts.UploadBatch{
		ID:            batchID,
		Status:        status,
		RecordsTotal:  recordsTotal,
		RecordsLoaded: recordsLoaded,
		ErrorMessage:  errorMessage,
	}
	return nil
}

func bhavRow(code, open, high, low, closeP, volume string) map[string]string {
	return map[string]string{
		"FinInstrmId": code,
		"OpnPric":     open,
		"HghPric":     high,
		"LwPric":      low,
		"ClsPric":     closeP,
		"TtlTradgVol": volume,
	}
}

func trackedInstruments() *fakeInstruments {
	return &fakeInstruments{instruments: []contracts.Instrument{
		{ID: 1, Symbol: "AAA", FileCode: "500001", IsActive: true},
		{ID: 2, Symbol: "BBB", FileCode: "500002", IsActive: true},
	}}
}

func TestFileImporter_Run(t *testing.T) {
	rows := &sliceRows{rows: []map[string]string{
		bhavRow("500001", "10", "10.8", "9.9", "10.5", "15000"),
		bhavRow("500002", "20", "20.4", "19.5", "20.1", "8000"),
		bhavRow("999999", "5", "5", "5", "5", "100"), // untracked universe
	}}
	store := newMemStore()
	uploads := newFakeUploads()

	imp := NewFileImporter(trackedInstruments(), store, uploads, BhavColumns, zerolog.Nop())

	report, err := imp.Run(context.Background(), "EQ290826.csv", day(29), rows)
	require.NoError(t, err)

	assert.Equal(t, contracts.BatchSuccess, report.Status)
	assert.Equal(t, 3, report.RecordsTotal)
	assert.Equal(t, 2, report.RecordsLoaded)
	assert.Empty(t, report.ErrorMessage)
	assert.Equal(t, "upload status: SUCCESS, total rows=3, loaded=2", report.Messages[0])

	// Batch summary persisted with the same counts
	persisted := uploads.finished[report.BatchID]
	assert.Equal(t, contracts.BatchSuccess, persisted.Status)
	assert.Equal(t, 3, persisted.RecordsTotal)
	assert.Equal(t, 2, persisted.RecordsLoaded)

	bar := store.bars[1][day(29)]
	assert.Equal(t, 10.5, bar.Close)
	assert.Equal(t, int64(15000), bar.Volume)
	assert.Equal(t, contracts.SourceFileFeed, bar.Source)
}

func TestFileImporter_Run_RowIsolation(t *testing.T) {
	// One malformed row among valid ones still yields SUCCESS; the bad row
	// is counted in the total but not loaded.
	rows := &sliceRows{rows: []map[string]string{
		bhavRow("500001", "10", "10.8", "9.9", "10.5", "15000"),
		bhavRow("500002", "20", "20.4", "19.5", "NOT_A_PRICE", "8000"),
	}}
	store := newMemStore()
	uploads := newFakeUploads()

	imp := NewFileImporter(trackedInstruments(), store, uploads, BhavColumns, zerolog.Nop())

	report, err := imp.Run(context.Background(), "EQ290826.csv", day(29), rows)
	require.NoError(t, err)

	assert.Equal(t, contracts.BatchSuccess, report.Status)
	assert.Equal(t, 2, report.RecordsTotal)
	assert.Equal(t, 1, report.RecordsLoaded)
	require.Len(t, report.Messages, 2)
	assert.Contains(t, report.Messages[1], "row error (code=500002)")
	assert.Contains(t, report.Messages[1], "NOT_A_PRICE")
	assert.Empty(t, store.bars[2])
}

func TestFileImporter_Run_EmptyPriceFieldsCountAsZero(t *testing.T) {
	// Untraded instruments appear with empty numeric fields; a zero-valued
	// bar is still a valid bar.
	rows := &sliceRows{rows: []map[string]string{
		bhavRow("500001", "", "", "", "", ""),
	}}
	store := newMemStore()
	uploads := newFakeUploads()

	imp := NewFileImporter(trackedInstruments(), store, uploads, BhavColumns, zerolog.Nop())

	report, err := imp.Run(context.Background(), "EQ290826.csv", day(29), rows)
	require.NoError(t, err)

	assert.Equal(t, 1, report.RecordsLoaded)
	assert.Equal(t, 0.0, store.bars[1][day(29)].Close)
}

func TestFileImporter_Run_RegistryFaultFailsBatch(t *testing.T) {
	rows := &sliceRows{rows: []map[string]string{
		bhavRow("500001", "10", "10.8", "9.9", "10.5", "15000"),
	}}
	store := newMemStore()
	uploads := newFakeUploads()
	instruments := &fakeInstruments{err: errors.New("connection refused")}

	imp := NewFileImporter(instruments, store, uploads, BhavColumns, zerolog.Nop())

	report, err := imp.Run(context.Background(), "EQ290826.csv", day(29), rows)
	require.NoError(t, err)

	assert.Equal(t, contracts.BatchFailed, report.Status)
	assert.Contains(t, report.ErrorMessage, "load instrument mapping")
	assert.Equal(t, 0, report.RecordsTotal)
	assert.Equal(t, contracts.BatchFailed, uploads.finished[report.BatchID].Status)
}

func TestFileImporter_Run_ReadFaultFailsBatch(t *testing.T) {
	rows := &sliceRows{
		rows: []map[string]string{
			bhavRow("500001", "10", "10.8", "9.9", "10.5", "15000"),
		},
		err: fmt.Errorf("record on line 3: wrong number of fields"),
	}
	store := newMemStore()
	uploads := newFakeUploads()

	imp := NewFileImporter(trackedInstruments(), store, uploads, BhavColumns, zerolog.Nop())

	report, err := imp.Run(context.Background(), "EQ290826.csv", day(29), rows)
	require.NoError(t, err)

	assert.Equal(t, contracts.BatchFailed, report.Status)
	assert.Contains(t, report.ErrorMessage, "read row")
	// The row consumed before the fault still loaded
	assert.Equal(t, 1, report.RecordsLoaded)
}

func TestFileImporter_Run_StorageFaultFailsBatch(t *testing.T) {
	rows := &sliceRows{rows: []map[string]string{
		bhavRow("500001", "10", "10.8", "9.9", "10.5", "15000"),
		bhavRow("500002", "20", "20.4", "19.5", "20.1", "8000"),
	}}
	store := newMemStore()
	store.failAfter = 1
	uploads := newFakeUploads()

	imp := NewFileImporter(trackedInstruments(), store, uploads, BhavColumns, zerolog.Nop())

	report, err := imp.Run(context.Background(), "EQ290826.csv", day(29), rows)
	require.NoError(t, err)

	assert.Equal(t, contracts.BatchFailed, report.Status)
	assert.Contains(t, report.ErrorMessage, "upsert code=500002")
	assert.Equal(t, 1, report.RecordsLoaded)
}
