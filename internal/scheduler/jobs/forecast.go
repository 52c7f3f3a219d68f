package jobs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/adityakale/stockcast/internal/forecast"
)

// NightlyForecast executes one forecast run across all active instruments
type NightlyForecast struct {
	orchestrator *forecast.Orchestrator
	schedule     string
	log          zerolog.Logger
}

// NewNightlyForecast creates the nightly forecast job
func NewNightlyForecast(orchestrator *forecast.Orchestrator, schedule string, log zerolog.Logger) *NightlyForecast {
	return &NightlyForecast{
		orchestrator: orchestrator,
		schedule:     schedule,
		log:          log.With().Str("component", "jobs.nightly_forecast").Logger(),
	}
}

func (j *NightlyForecast) Name() string     { return "nightly-forecast" }
func (j *NightlyForecast) Schedule() string { return j.schedule }

// Run executes one scheduled forecast run
func (j *NightlyForecast) Run(ctx context.Context) error {
	summary, err := j.orchestrator.Run(ctx, "scheduled")
	if err != nil {
		return fmt.Errorf("forecast run: %w", err)
	}

	j.log.Info().
		Int64("run_id", summary.RunID).
		Int("computed", summary.Computed).
		Int("skipped", summary.Skipped).
		Msg("nightly forecast finished")

	return nil
}
