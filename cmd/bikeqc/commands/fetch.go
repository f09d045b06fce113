package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ridedata/bikeqc/internal/external/tripdata"
	"github.com/ridedata/bikeqc/internal/ingest"
	"github.com/ridedata/bikeqc/internal/storage"
	"github.com/ridedata/bikeqc/pkg/config"
	"github.com/ridedata/bikeqc/pkg/database"
	"github.com/ridedata/bikeqc/pkg/httputil"
	"github.com/ridedata/bikeqc/pkg/logger"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and import historical trip archives",
	Long: `List the monthly archives in the public tripdata bucket, download
the selected ones, and run every contained csv through the quality
scorer into storage.

Examples:
  bikeqc fetch --list
  bikeqc fetch --match 202401
  bikeqc fetch --match 2023 --limit 3`,
	RunE: runFetch,
}

var (
	fetchListOnly bool
	fetchMatch    string
	fetchLimit    int
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchListOnly, "list", false, "list matching archives without downloading")
	fetchCmd.Flags().StringVar(&fetchMatch, "match", "", "only archives whose name contains this substring")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "import at most this many archives (0 = all)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := tripdata.NewClient(cfg, httputil.New(cfg, log), log)

	entries, err := client.ListArchives(ctx)
	if err != nil {
		return fmt.Errorf("list archives: %w", err)
	}
	entries = filterEntries(entries, fetchMatch, fetchLimit)

	if fetchListOnly {
		for _, entry := range entries {
			fmt.Printf("%12d  %s\n", entry.Size, entry.Key)
		}
		fmt.Printf("%d archives\n", len(entries))
		return nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := storage.InitSchema(ctx, db.Pool); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	importer := ingest.NewImporter(storage.NewTripRepository(db.Pool), log)

	total := ingest.ImportStats{}
	for _, entry := range entries {
		zipPath, err := client.Download(ctx, entry)
		if err != nil {
			return fmt.Errorf("download %s: %w", entry.Key, err)
		}

		csvDir := filepath.Join(cfg.Tripdata.DownloadDir, "csv")
		csvPaths, err := tripdata.ExtractCSVs(zipPath, csvDir)
		if err != nil {
			return fmt.Errorf("extract %s: %w", entry.Key, err)
		}

		for _, csvPath := range csvPaths {
			stats, err := importer.ImportFile(ctx, csvPath)
			if err != nil {
				return fmt.Errorf("import %s: %w", csvPath, err)
			}
			total.Rows += stats.Rows
			total.Saved += stats.Saved
			total.Skipped += stats.Skipped
		}
	}

	fmt.Printf("imported %d rows (%d saved, %d skipped) from %d archives\n",
		total.Rows, total.Saved, total.Skipped, len(entries))
	return nil
}

func filterEntries(entries []tripdata.FileEntry, match string, limit int) []tripdata.FileEntry {
	var out []tripdata.FileEntry
	for _, entry := range entries {
		if match != "" && !strings.Contains(filepath.Base(entry.Key), match) {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
