package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adityakale/stockcast/internal/contracts"
)

// UploadRepository implements contracts.UploadStore on PostgreSQL
type UploadRepository struct {
	pool *pgxpool.Pool
}

// NewUploadRepository creates a new upload batch repository
func NewUploadRepository(pool *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{pool: pool}
}

// CreateBatch inserts a PENDING batch row and returns its id
func (r *UploadRepository) CreateBatch(ctx context.Context, fileName string, targetDate time.Time) (int64, error) {
	query := `
		INSERT INTO stockcast.upload_batches (source_file_name, target_date, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query, fileName, targetDate, contracts.BatchPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert upload batch: %w", err)
	}
	return id, nil
}

// FinishBatch records the terminal status and row counts of a batch
func (r *UploadRepository) FinishBatch(ctx context.Context, batchID int64, status contracts.BatchStatus, recordsTotal, recordsLoaded int, errorMessage string) error {
	query := `
		UPDATE stockcast.upload_batches
		SET status = $2,
			records_total = $3,
			records_loaded = $4,
			error_message = NULLIF($5, '')
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, batchID, status, recordsTotal, recordsLoaded, errorMessage)
	if err != nil {
		return fmt.Errorf("update upload batch %d: %w", batchID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upload batch %d not found", batchID)
	}
	return nil
}

// GetLatestBatch returns the most recent upload batch, or nil if none exist
func (r *UploadRepository) GetLatestBatch(ctx context.Context) (*contracts.UploadBatch, error) {
	query := `
		SELECT id, source_file_name, target_date, status,
			   records_total, records_loaded, COALESCE(error_message, '')
		FROM stockcast.upload_batches
		ORDER BY id DESC
		LIMIT 1
	`

	var batch contracts.UploadBatch
	err := r.pool.QueryRow(ctx, query).Scan(
		&batch.ID, &batch.SourceFileName, &batch.TargetDate, &batch.Status,
		&batch.RecordsTotal, &batch.RecordsLoaded, &batch.ErrorMessage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest upload batch: %w", err)
	}
	return &batch, nil
}
