package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adityakale/stockcast/internal/forecast"
	"github.com/adityakale/stockcast/internal/ingest"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline status",
	Long: `Show database health, the most recent upload batch, and the most
recent forecast run.

Example:
  stockcast status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Stockcast Status ===")

	ctx := cmd.Context()

	_, _, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	health, err := db.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("\n⚠️ Database: unhealthy (%s)\n", health.Error)
		return nil
	}
	fmt.Printf("\n✅ Database: healthy (ping %v, %d/%d conns)\n",
		health.ResponseTime, health.Stats.TotalConns, health.Stats.MaxConns)

	uploadRepo := ingest.NewUploadRepository(db.Pool)
	batch, err := uploadRepo.GetLatestBatch(ctx)
	if err != nil {
		return fmt.Errorf("get latest upload batch: %w", err)
	}
	if batch == nil {
		fmt.Println("\nLast upload batch: none")
	} else {
		fmt.Printf("\nLast upload batch: #%d %s\n", batch.ID, batch.Status)
		fmt.Printf("  File:   %s (target %s)\n", batch.SourceFileName, batch.TargetDate.Format("2006-01-02"))
		fmt.Printf("  Rows:   %d/%d loaded\n", batch.RecordsLoaded, batch.RecordsTotal)
		if batch.ErrorMessage != "" {
			fmt.Printf("  Error:  %s\n", batch.ErrorMessage)
		}
	}

	runRepo := forecast.NewRepository(db.Pool)
	run, err := runRepo.GetLatestRun(ctx)
	if err != nil {
		return fmt.Errorf("get latest run: %w", err)
	}
	if run == nil {
		fmt.Println("\nLast forecast run: none")
		return nil
	}
	fmt.Printf("\nLast forecast run: #%d %s\n", run.ID, run.Status)
	fmt.Printf("  Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.Label != "" {
		fmt.Printf("  Label:   %s\n", run.Label)
	}
	if run.ErrorMessage != "" {
		fmt.Printf("  Error:   %s\n", run.ErrorMessage)
	}

	return nil
}
