package pricestore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adityakale/stockcast/internal/contracts"
)

// Repository implements contracts.PriceStore on PostgreSQL.
// Price bars are written here and nowhere else.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new price store repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes one bar, overwriting all value fields on key conflict
func (r *Repository) Upsert(ctx context.Context, bar contracts.PriceBar) error {
	if err := bar.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO stockcast.price_bars
			(instrument_id, trade_date, open, high, low, close, volume, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (instrument_id, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			source = EXCLUDED.source
	`

	_, err := r.pool.Exec(ctx, query,
		bar.InstrumentID, bar.TradeDate, bar.Open, bar.High, bar.Low, bar.Close,
		bar.Volume, bar.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert price bar: %w", err)
	}
	return nil
}

// ReadRecent returns at most maxBars most recent bars, ascending by trade date
func (r *Repository) ReadRecent(ctx context.Context, instrumentID int64, maxBars int) ([]contracts.PriceBar, error) {
	query := `
		SELECT instrument_id, trade_date, open, high, low, close, volume, source
		FROM stockcast.price_bars
		WHERE instrument_id = $1
		ORDER BY trade_date DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, instrumentID, maxBars)
	if err != nil {
		return nil, fmt.Errorf("query recent bars: %w", err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(
			&b.InstrumentID, &b.TradeDate, &b.Open, &b.High, &b.Low, &b.Close,
			&b.Volume, &b.Source,
		); err != nil {
			return nil, fmt.Errorf("scan price bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read recent bars: %w", err)
	}

	// Query is newest-first for the LIMIT; callers want ascending order
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}
