package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adityakale/stockcast/pkg/config"
	"github.com/adityakale/stockcast/pkg/database"
	"github.com/adityakale/stockcast/pkg/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockcast",
	Short: "Stockcast - daily price ingestion and forecast pipeline",
	Long: `Stockcast maintains a per-instrument daily OHLCV series, ingests it from
a bulk download feed and from exchange bhav-copy files, and derives a
one-day-ahead price forecast per instrument in versioned runs.

Examples:
  stockcast import bulk --from 2026-08-01 --to 2026-08-29
  stockcast import bhav --file EQ290826.csv --date 2026-08-29
  stockcast forecast run --label "manual run"
  stockcast forecast latest
  stockcast scheduler
  stockcast status`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// initDeps wires config, logger and database for a command invocation.
// The caller owns the returned DB and must Close it.
func initDeps() (*config.Config, zerolog.Logger, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("connect to database: %w", err)
	}

	return cfg, log, db, nil
}
