package registry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adityakale/stockcast/internal/contracts"
)

// Repository reads the instrument registry. The registry itself is owned by
// an external application; this pipeline never mutates it.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new registry reader
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActive returns all active instruments with their feed codes,
// ordered by symbol
func (r *Repository) ListActive(ctx context.Context) ([]contracts.Instrument, error) {
	query := `
		SELECT id, symbol, name, COALESCE(bulk_code, ''), COALESCE(file_code, ''), is_active
		FROM stockcast.instruments
		WHERE is_active
		ORDER BY symbol
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active instruments: %w", err)
	}
	defer rows.Close()

	var instruments []contracts.Instrument
	for rows.Next() {
		var inst contracts.Instrument
		if err := rows.Scan(&inst.ID, &inst.Symbol, &inst.Name, &inst.BulkCode, &inst.FileCode, &inst.IsActive); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active instruments: %w", err)
	}

	return instruments, nil
}
