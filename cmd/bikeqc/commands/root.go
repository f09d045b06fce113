package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bikeqc",
	Short: "Bicycle trip data quality pipeline",
	Long: `bikeqc scores bicycle rental trip records for data quality.

Trips arrive over the ingest API or from historical archive imports,
get scored against the quality rubric, and land in PostgreSQL. Rollup
jobs aggregate the scores into batch summaries and per-day statistics.

Usage:
  bikeqc api         - start the ingest/reporting API server
  bikeqc worker      - start the trip-event scoring worker
  bikeqc scheduler   - start the rollup job scheduler
  bikeqc fetch       - download and import historical archives
  bikeqc score       - score a local JSON file offline`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
