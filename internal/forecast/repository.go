package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adityakale/stockcast/internal/contracts"
)

// Repository implements contracts.RunStore on PostgreSQL and provides the
// reporting reads consumed by the CLI.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new forecast run repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateRun inserts a new PENDING run row and returns its id
func (r *Repository) CreateRun(ctx context.Context, startedAt time.Time, label string) (int64, error) {
	query := `
		INSERT INTO stockcast.forecast_runs (started_at, label, status)
		VALUES ($1, NULLIF($2, ''), $3)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query, startedAt, label, contracts.RunPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert forecast run: %w", err)
	}
	return id, nil
}

// CompleteRun records the terminal status of a run
func (r *Repository) CompleteRun(ctx context.Context, runID int64, status contracts.RunStatus, errorMessage string) error {
	query := `
		UPDATE stockcast.forecast_runs
		SET status = $2, error_message = NULLIF($3, '')
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, runID, status, errorMessage)
	if err != nil {
		return fmt.Errorf("update forecast run %d: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("forecast run %d not found", runID)
	}
	return nil
}

// SaveResult inserts one forecast result. Results are written once per
// (run, instrument) and never updated.
func (r *Repository) SaveResult(ctx context.Context, result contracts.ForecastResult) error {
	query := `
		INSERT INTO stockcast.forecast_results
			(run_id, instrument_id, as_of_date, next_date, last_close,
			 forecast_return, forecast_price, lower_price, upper_price, trend_flag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		result.RunID, result.InstrumentID, result.AsOfDate, result.NextDate,
		result.LastClose, result.ForecastReturn, result.ForecastPrice,
		result.LowerPrice, result.UpperPrice, result.TrendFlag,
	)
	if err != nil {
		return fmt.Errorf("insert forecast result: %w", err)
	}
	return nil
}

// GetLatestRun returns the most recent run, or nil if none exist
func (r *Repository) GetLatestRun(ctx context.Context) (*contracts.ForecastRun, error) {
	query := `
		SELECT id, started_at, COALESCE(label, ''), status, COALESCE(error_message, '')
		FROM stockcast.forecast_runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	var run contracts.ForecastRun
	err := r.pool.QueryRow(ctx, query).Scan(
		&run.ID, &run.StartedAt, &run.Label, &run.Status, &run.ErrorMessage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	return &run, nil
}

// ResultWithSymbol is one forecast result joined with its instrument symbol,
// for reporting
type ResultWithSymbol struct {
	contracts.ForecastResult
	Symbol string
}

// GetResultsForRun returns all results of a run with instrument symbols,
// ordered by symbol
func (r *Repository) GetResultsForRun(ctx context.Context, runID int64) ([]ResultWithSymbol, error) {
	query := `
		SELECT fr.run_id, fr.instrument_id, i.symbol, fr.as_of_date, fr.next_date,
			   fr.last_close, fr.forecast_return, fr.forecast_price,
			   fr.lower_price, fr.upper_price, fr.trend_flag
		FROM stockcast.forecast_results fr
		JOIN stockcast.instruments i ON i.id = fr.instrument_id
		WHERE fr.run_id = $1
		ORDER BY i.symbol
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run results: %w", err)
	}
	defer rows.Close()

	var results []ResultWithSymbol
	for rows.Next() {
		var res ResultWithSymbol
		if err := rows.Scan(
			&res.RunID, &res.InstrumentID, &res.Symbol, &res.AsOfDate, &res.NextDate,
			&res.LastClose, &res.ForecastReturn, &res.ForecastPrice,
			&res.LowerPrice, &res.UpperPrice, &res.TrendFlag,
		); err != nil {
			return nil, fmt.Errorf("scan run result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read run results: %w", err)
	}

	return results, nil
}
