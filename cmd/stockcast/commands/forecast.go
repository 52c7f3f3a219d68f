package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adityakale/stockcast/internal/contracts"
	"github.com/adityakale/stockcast/internal/forecast"
	"github.com/adityakale/stockcast/internal/pricestore"
	"github.com/adityakale/stockcast/internal/registry"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Compute and inspect one-day-ahead forecasts",
	Long: `Forecast runs compute a next-day price estimate for every active
instrument from its recent bars. Each run is versioned and kept.

Commands:
  run     execute one forecast run
  latest  show the results of the most recent run`,
}

var forecastLabel string

var forecastRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one forecast run across all active instruments",
	Long: `Create a run, compute a forecast per active instrument from its most
recent bars, and finalize the run to SUCCESS or FAILED.

Example:
  stockcast forecast run
  stockcast forecast run --label "post backfill"`,
	RunE: runForecastRun,
}

var forecastLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent forecast run and its results",
	RunE:  runForecastLatest,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.AddCommand(forecastRunCmd)
	forecastCmd.AddCommand(forecastLatestCmd)

	forecastRunCmd.Flags().StringVar(&forecastLabel, "label", "", "free-form label stored on the run")
}

func runForecastRun(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Forecast: Run ===")

	ctx := cmd.Context()

	cfg, log, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	instrumentRepo := registry.NewRepository(db.Pool)
	priceRepo := pricestore.NewRepository(db.Pool)
	runRepo := forecast.NewRepository(db.Pool)

	orchestrator := forecast.NewOrchestrator(instrumentRepo, priceRepo, runRepo, cfg.Forecast.LookbackBars, log)

	summary, err := orchestrator.Run(ctx, forecastLabel)
	if err != nil {
		if summary != nil && summary.Status == contracts.RunFailed {
			fmt.Printf("\n⚠️ Run %d failed after %d forecasts\n", summary.RunID, summary.Computed)
		}
		return fmt.Errorf("forecast run: %w", err)
	}

	fmt.Printf("\n✅ Run %d completed: %d forecasts computed, %d instruments skipped\n",
		summary.RunID, summary.Computed, summary.Skipped)
	return nil
}

func runForecastLatest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Forecast: Latest Run ===")

	ctx := cmd.Context()

	_, _, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	runRepo := forecast.NewRepository(db.Pool)

	run, err := runRepo.GetLatestRun(ctx)
	if err != nil {
		return fmt.Errorf("get latest run: %w", err)
	}
	if run == nil {
		fmt.Println("⚠️ No forecast runs yet")
		return nil
	}

	fmt.Printf("\nRun %d  started=%s  status=%s", run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Status)
	if run.Label != "" {
		fmt.Printf("  label=%q", run.Label)
	}
	fmt.Println()
	if run.ErrorMessage != "" {
		fmt.Printf("Error: %s\n", run.ErrorMessage)
	}
	if run.Status == contracts.RunFailed {
		fmt.Println("Note: results below are partial and provisional")
	}

	results, err := runRepo.GetResultsForRun(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("get run results: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("\nNo results in this run")
		return nil
	}

	fmt.Printf("\n%-12s %-10s %10s %8s %10s %10s %10s %5s\n",
		"SYMBOL", "NEXT DATE", "LAST", "RET%", "FORECAST", "LOWER", "UPPER", "TREND")
	for _, r := range results {
		fmt.Printf("%-12s %-10s %10.2f %+7.2f%% %10.2f %10.2f %10.2f %5s\n",
			r.Symbol, r.NextDate.Format("2006-01-02"), r.LastClose,
			r.ForecastReturn*100, r.ForecastPrice, r.LowerPrice, r.UpperPrice, r.TrendFlag)
	}
	fmt.Printf("\n✅ %d results\n", len(results))
	return nil
}
