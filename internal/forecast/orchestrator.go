package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adityakale/stockcast/internal/contracts"
)

// Orchestrator executes forecast runs: one ForecastRun row per invocation,
// one ForecastResult per instrument with data.
type Orchestrator struct {
	instruments contracts.InstrumentSource
	store       contracts.PriceStore
	runs        contracts.RunStore
	lookback    int
	log         zerolog.Logger
}

// NewOrchestrator creates a new run orchestrator. lookback is the number of
// most recent bars read per instrument.
func NewOrchestrator(
	instruments contracts.InstrumentSource,
	store contracts.PriceStore,
	runs contracts.RunStore,
	lookback int,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		instruments: instruments,
		store:       store,
		runs:        runs,
		lookback:    lookback,
		log:         log.With().Str("component", "forecast.orchestrator").Logger(),
	}
}

// RunSummary reports the outcome of one forecast run
type RunSummary struct {
	RunID    int64
	Status   contracts.RunStatus
	Computed int
	Skipped  int
}

// Run executes one forecast batch across all active instruments.
//
// The run row is created PENDING and finalized to SUCCESS or FAILED at the
// end. Instruments with no bars are skipped, not failed. A storage fault
// aborts the run; results already written before the fault are retained
// under the FAILED run (audit behavior, reporting treats them as
// provisional).
func (o *Orchestrator) Run(ctx context.Context, label string) (*RunSummary, error) {
	runID, err := o.runs.CreateRun(ctx, time.Now().UTC(), label)
	if err != nil {
		return nil, fmt.Errorf("create forecast run: %w", err)
	}

	summary := &RunSummary{RunID: runID}

	o.log.Info().Int64("run_id", runID).Str("label", label).Msg("forecast run started")

	instruments, err := o.instruments.ListActive(ctx)
	if err != nil {
		return o.fail(ctx, summary, fmt.Errorf("list active instruments: %w", err))
	}

	for _, inst := range instruments {
		bars, err := o.store.ReadRecent(ctx, inst.ID, o.lookback)
		if err != nil {
			return o.fail(ctx, summary, fmt.Errorf("read bars for %s: %w", inst.Symbol, err))
		}

		if len(bars) == 0 {
			// No price history yet: no result for this instrument this run
			summary.Skipped++
			o.log.Debug().Str("symbol", inst.Symbol).Msg("no bars, skipping")
			continue
		}

		fc, err := Compute(bars)
		if err != nil {
			if errors.Is(err, contracts.ErrInsufficientData) {
				summary.Skipped++
				o.log.Warn().Str("symbol", inst.Symbol).Msg("engine rejected series, skipping")
				continue
			}
			return o.fail(ctx, summary, fmt.Errorf("compute forecast for %s: %w", inst.Symbol, err))
		}

		result := contracts.ForecastResult{
			RunID:        runID,
			InstrumentID: inst.ID,
			Forecast:     *fc,
		}
		if err := o.runs.SaveResult(ctx, result); err != nil {
			return o.fail(ctx, summary, fmt.Errorf("save result for %s: %w", inst.Symbol, err))
		}
		summary.Computed++

		o.log.Debug().
			Str("symbol", inst.Symbol).
			Str("trend", string(fc.TrendFlag)).
			Float64("forecast_return", fc.ForecastReturn).
			Msg("forecast computed")
	}

	if err := o.runs.CompleteRun(ctx, runID, contracts.RunSuccess, ""); err != nil {
		return nil, fmt.Errorf("complete forecast run: %w", err)
	}
	summary.Status = contracts.RunSuccess

	o.log.Info().
		Int64("run_id", runID).
		Int("computed", summary.Computed).
		Int("skipped", summary.Skipped).
		Msg("forecast run completed")

	return summary, nil
}

// fail marks the run FAILED with the captured error text and stops
// processing. Results written before the fault stay in place.
func (o *Orchestrator) fail(ctx context.Context, summary *RunSummary, cause error) (*RunSummary, error) {
	summary.Status = contracts.RunFailed

	o.log.Error().Err(cause).Int64("run_id", summary.RunID).Msg("forecast run failed")

	if err := o.runs.CompleteRun(ctx, summary.RunID, contracts.RunFailed, cause.Error()); err != nil {
		return summary, errors.Join(cause, fmt.Errorf("mark run failed: %w", err))
	}
	return summary, cause
}
