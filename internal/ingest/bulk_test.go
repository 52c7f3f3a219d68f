package ingest

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakale/stockcast/internal/contracts"
)

type fakeDownloader struct {
	bars map[string][]contracts.RawBar
	errs map[string]error
}

func (f *fakeDownloader) Download(ctx context.Context, code string, from, to time.Time) ([]contracts.RawBar, error) {
	if err := f.errs[code]; err != nil {
		return nil, err
	}
	return f.bars[code], nil
}

// memStore validates bars like the real repository and keeps the latest bar
// per (instrument, date) key
type memStore struct {
	mu   sync.Mutex
	bars map[int64]map[time.Time]contracts.PriceBar

	failAfter int // storage fault after this many upserts, 0 = never
	upserts   int
}

func newMemStore() *memStore {
	return &memStore{bars: make(map[int64]map[time.Time]contracts.PriceBar)}
}

func (m *memStore) Upsert(ctx context.Context, bar contracts.PriceBar) error {
	if err := bar.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.upserts++
	if m.failAfter > 0 && m.upserts > m.failAfter {
		return errors.New("connection refused")
	}
	if m.bars[bar.InstrumentID] == nil {
		m.bars[bar.InstrumentID] = make(map[time.Time]contracts.PriceBar)
	}
	m.bars[bar.InstrumentID][bar.TradeDate] = bar
	return nil
}

func (m *memStore) ReadRecent(ctx context.Context, instrumentID int64, maxBars int) ([]contracts.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var bars []contracts.PriceBar
	for _, b := range m.bars[instrumentID] {
		bars = append(bars, b)
	}
	return bars, nil
}

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func rawBar(d int, close float64) contracts.RawBar {
	return contracts.RawBar{Date: day(d), Open: close, High: close, Low: close, Close: close, Volume: 1000}
}

func TestBulkImporter_Run(t *testing.T) {
	instruments := []contracts.Instrument{
		{ID: 1, Symbol: "AAA", BulkCode: "AAA.BO", IsActive: true},
		{ID: 2, Symbol: "BBB", BulkCode: "BBB.BO", IsActive: true},
		{ID: 3, Symbol: "CCC", IsActive: true}, // no bulk code, not eligible
	}
	source := &fakeDownloader{bars: map[string][]contracts.RawBar{
		"AAA.BO": {rawBar(3, 10), rawBar(4, 10.5)},
		"BBB.BO": {rawBar(3, 20)},
	}}
	store := newMemStore()

	imp := NewBulkImporter(source, store, 2, zerolog.Nop())

	report, err := imp.Run(context.Background(), instruments, day(3), day(4))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Instruments)
	assert.Equal(t, 0, report.InstrumentsFailed)
	assert.Equal(t, 3, report.RowsLoaded)
	assert.Equal(t, 0, report.RowsSkipped)
	assert.Equal(t, []string{
		"AAA.BO: imported/updated 2 rows",
		"BBB.BO: imported/updated 1 rows",
	}, report.Messages)

	assert.Len(t, store.bars[1], 2)
	assert.Len(t, store.bars[2], 1)
	assert.Empty(t, store.bars[3])
}

func TestBulkImporter_Run_FailureIsolation(t *testing.T) {
	// One instrument's download fails, one returns nothing, the third loads
	instruments := []contracts.Instrument{
		{ID: 1, Symbol: "AAA", BulkCode: "AAA.BO", IsActive: true},
		{ID: 2, Symbol: "BBB", BulkCode: "BBB.BO", IsActive: true},
		{ID: 3, Symbol: "CCC", BulkCode: "CCC.BO", IsActive: true},
	}
	source := &fakeDownloader{
		bars: map[string][]contracts.RawBar{
			"CCC.BO": {rawBar(3, 30)},
		},
		errs: map[string]error{"AAA.BO": errors.New("status 502")},
	}
	store := newMemStore()

	imp := NewBulkImporter(source, store, 2, zerolog.Nop())

	report, err := imp.Run(context.Background(), instruments, day(3), day(3))
	require.NoError(t, err)

	assert.Equal(t, 2, report.InstrumentsFailed)
	assert.Equal(t, 1, report.RowsLoaded)
	assert.Contains(t, report.Messages[0], "AAA.BO: fetch failed")
	assert.Contains(t, report.Messages[1], "BBB.BO: no data returned")
	assert.Contains(t, report.Messages[2], "CCC.BO: imported/updated 1 rows")
}

func TestBulkImporter_Run_SkipsMalformedRows(t *testing.T) {
	instruments := []contracts.Instrument{
		{ID: 1, Symbol: "AAA", BulkCode: "AAA.BO", IsActive: true},
	}
	source := &fakeDownloader{bars: map[string][]contracts.RawBar{
		"AAA.BO": {
			rawBar(3, 10),
			{Date: day(4), Open: 10, High: 10, Low: 10, Close: math.NaN(), Volume: 100},
			rawBar(5, 11),
		},
	}}
	store := newMemStore()

	imp := NewBulkImporter(source, store, 1, zerolog.Nop())

	report, err := imp.Run(context.Background(), instruments, day(3), day(5))
	require.NoError(t, err)

	assert.Equal(t, 0, report.InstrumentsFailed)
	assert.Equal(t, 2, report.RowsLoaded)
	assert.Equal(t, 1, report.RowsSkipped)
	assert.Len(t, store.bars[1], 2)
}

func TestBulkImporter_Run_NaNVolumeCountsAsZero(t *testing.T) {
	instruments := []contracts.Instrument{
		{ID: 1, Symbol: "AAA", BulkCode: "AAA.BO", IsActive: true},
	}
	source := &fakeDownloader{bars: map[string][]contracts.RawBar{
		"AAA.BO": {
			{Date: day(3), Open: 10, High: 10, Low: 10, Close: 10, Volume: math.NaN()},
		},
	}}
	store := newMemStore()

	imp := NewBulkImporter(source, store, 1, zerolog.Nop())

	report, err := imp.Run(context.Background(), instruments, day(3), day(3))
	require.NoError(t, err)

	assert.Equal(t, 1, report.RowsLoaded)
	assert.Equal(t, int64(0), store.bars[1][day(3)].Volume)
}

func TestBulkImporter_Run_StorageFaultAborts(t *testing.T) {
	instruments := []contracts.Instrument{
		{ID: 1, Symbol: "AAA", BulkCode: "AAA.BO", IsActive: true},
	}
	source := &fakeDownloader{bars: map[string][]contracts.RawBar{
		"AAA.BO": {rawBar(3, 10), rawBar(4, 10.5), rawBar(5, 11)},
	}}
	store := newMemStore()
	store.failAfter = 1

	imp := NewBulkImporter(source, store, 1, zerolog.Nop())

	_, err := imp.Run(context.Background(), instruments, day(3), day(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBulkImporter_Run_Reimport(t *testing.T) {
	// Re-running the same range converges on the latest values
	instruments := []contracts.Instrument{
		{ID: 1, Symbol: "AAA", BulkCode: "AAA.BO", IsActive: true},
	}
	source := &fakeDownloader{bars: map[string][]contracts.RawBar{
		"AAA.BO": {rawBar(3, 10)},
	}}
	store := newMemStore()

	imp := NewBulkImporter(source, store, 1, zerolog.Nop())

	_, err := imp.Run(context.Background(), instruments, day(3), day(3))
	require.NoError(t, err)

	source.bars["AAA.BO"] = []contracts.RawBar{rawBar(3, 10.25)}
	report, err := imp.Run(context.Background(), instruments, day(3), day(3))
	require.NoError(t, err)

	assert.Equal(t, 1, report.RowsLoaded)
	assert.Len(t, store.bars[1], 1)
	assert.Equal(t, 10.25, store.bars[1][day(3)].Close)
}
