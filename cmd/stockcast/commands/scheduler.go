package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adityakale/stockcast/internal/external/yahoo"
	"github.com/adityakale/stockcast/internal/forecast"
	"github.com/adityakale/stockcast/internal/ingest"
	"github.com/adityakale/stockcast/internal/pricestore"
	"github.com/adityakale/stockcast/internal/registry"
	"github.com/adityakale/stockcast/internal/scheduler"
	"github.com/adityakale/stockcast/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the nightly ingest and forecast scheduler",
	Long: `Start the scheduler daemon.

Registered jobs:
- daily-ingest: pull the previous day's bars from the bulk feed
- nightly-forecast: run one forecast batch after ingest

Schedules come from SCHEDULE_INGEST and SCHEDULE_FORECAST. Stop with
Ctrl+C.`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Stockcast Scheduler ===")

	cfg, log, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	instrumentRepo := registry.NewRepository(db.Pool)
	priceRepo := pricestore.NewRepository(db.Pool)
	runRepo := forecast.NewRepository(db.Pool)

	downloader := yahoo.NewClient(cfg.BulkFeed, log)
	importer := ingest.NewBulkImporter(downloader, priceRepo, cfg.Ingest.Workers, log)
	orchestrator := forecast.NewOrchestrator(instrumentRepo, priceRepo, runRepo, cfg.Forecast.LookbackBars, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewDailyIngest(importer, instrumentRepo, cfg.Scheduler.IngestSpec, log)); err != nil {
		return fmt.Errorf("register ingest job: %w", err)
	}
	if err := sched.AddJob(jobs.NewNightlyForecast(orchestrator, cfg.Scheduler.ForecastSpec, log)); err != nil {
		return fmt.Errorf("register forecast job: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started")
	fmt.Printf("  - daily-ingest:     %s\n", cfg.Scheduler.IngestSpec)
	fmt.Printf("  - nightly-forecast: %s\n", cfg.Scheduler.ForecastSpec)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}
