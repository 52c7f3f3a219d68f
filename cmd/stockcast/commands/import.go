package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adityakale/stockcast/internal/contracts"
	"github.com/adityakale/stockcast/internal/external/bhav"
	"github.com/adityakale/stockcast/internal/external/yahoo"
	"github.com/adityakale/stockcast/internal/ingest"
	"github.com/adityakale/stockcast/internal/pricestore"
	"github.com/adityakale/stockcast/internal/registry"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import daily price bars",
	Long: `Import daily OHLCV bars into the price series store.

Sources:
  bulk  bulk download feed, per-instrument date range
  bhav  exchange bhav-copy file for one trading day`,
}

var (
	// bulk flags
	bulkFrom string
	bulkTo   string

	// bhav flags
	bhavFile string
	bhavDate string
)

var importBulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Import bars from the bulk download feed",
	Long: `Download bars for all active instruments with a bulk-feed code and
upsert them into the price series. Defaults to yesterday when no range
is given.

Example:
  stockcast import bulk
  stockcast import bulk --from 2026-08-01 --to 2026-08-29`,
	RunE: runImportBulk,
}

var importBhavCmd = &cobra.Command{
	Use:   "bhav",
	Short: "Import bars from an exchange bhav-copy file",
	Long: `Read a bhav-copy CSV and upsert the rows matching tracked instruments.
The batch outcome is recorded whether it succeeds or fails.

Example:
  stockcast import bhav --file BhavCopy_EQ_290826.csv --date 2026-08-29`,
	RunE: runImportBhav,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importBulkCmd)
	importCmd.AddCommand(importBhavCmd)

	importBulkCmd.Flags().StringVar(&bulkFrom, "from", "", "start date (YYYY-MM-DD, default: yesterday)")
	importBulkCmd.Flags().StringVar(&bulkTo, "to", "", "end date (YYYY-MM-DD, default: same as --from)")

	importBhavCmd.Flags().StringVar(&bhavFile, "file", "", "path to the bhav-copy CSV")
	importBhavCmd.Flags().StringVar(&bhavDate, "date", "", "trading date of the file (YYYY-MM-DD)")
	_ = importBhavCmd.MarkFlagRequired("file")
	_ = importBhavCmd.MarkFlagRequired("date")
}

func runImportBulk(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Import: Bulk Feed ===")

	ctx := cmd.Context()

	yesterday := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	from := yesterday
	to := yesterday
	var err error
	if bulkFrom != "" {
		from, err = time.Parse("2006-01-02", bulkFrom)
		if err != nil {
			return fmt.Errorf("invalid from date: %w", err)
		}
		to = from
	}
	if bulkTo != "" {
		to, err = time.Parse("2006-01-02", bulkTo)
		if err != nil {
			return fmt.Errorf("invalid to date: %w", err)
		}
	}
	if to.Before(from) {
		return fmt.Errorf("to date %s is before from date %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	fmt.Printf("📅 Period: %s ~ %s\n\n", from.Format("2006-01-02"), to.Format("2006-01-02"))

	cfg, log, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	instrumentRepo := registry.NewRepository(db.Pool)
	priceRepo := pricestore.NewRepository(db.Pool)
	downloader := yahoo.NewClient(cfg.BulkFeed, log)
	importer := ingest.NewBulkImporter(downloader, priceRepo, cfg.Ingest.Workers, log)

	instruments, err := instrumentRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active instruments: %w", err)
	}

	report, err := importer.Run(ctx, instruments, from, to)
	if err != nil {
		return fmt.Errorf("bulk import: %w", err)
	}

	for _, msg := range report.Messages {
		fmt.Println("  " + msg)
	}
	fmt.Printf("\n✅ Bulk import completed: %d rows loaded, %d skipped, %d/%d instruments failed\n",
		report.RowsLoaded, report.RowsSkipped, report.InstrumentsFailed, report.Instruments)
	return nil
}

func runImportBhav(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Import: Bhav Copy %s ===\n\n", bhavFile)

	ctx := cmd.Context()

	targetDate, err := time.Parse("2006-01-02", bhavDate)
	if err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}

	f, err := os.Open(bhavFile)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader, err := bhav.NewReader(f)
	if err != nil {
		return fmt.Errorf("read file header: %w", err)
	}

	_, log, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	instrumentRepo := registry.NewRepository(db.Pool)
	priceRepo := pricestore.NewRepository(db.Pool)
	uploadRepo := ingest.NewUploadRepository(db.Pool)
	importer := ingest.NewFileImporter(instrumentRepo, priceRepo, uploadRepo, ingest.BhavColumns, log)

	report, err := importer.Run(ctx, bhavFile, targetDate, reader)
	if err != nil {
		return fmt.Errorf("bhav import: %w", err)
	}

	for _, msg := range report.Messages {
		fmt.Println("  " + msg)
	}
	if report.Status == contracts.BatchSuccess {
		fmt.Printf("\n✅ Batch %d completed: %d/%d rows loaded\n",
			report.BatchID, report.RecordsLoaded, report.RecordsTotal)
	} else {
		fmt.Printf("\n⚠️ Batch %d failed: %s\n", report.BatchID, report.ErrorMessage)
	}
	return nil
}
