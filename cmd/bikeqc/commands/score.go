package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridedata/bikeqc/internal/contracts"
	"github.com/ridedata/bikeqc/internal/quality"
)

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score a local JSON file offline",
	Long: `Score a JSON array of raw trip records without touching the
database or the queue. Prints the scored records and the batch
summary to stdout.

Example:
  bikeqc score trips.json
  bikeqc score trips.json --summary-only`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

var scoreSummaryOnly bool

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().BoolVar(&scoreSummaryOnly, "summary-only", false, "print only the batch summary")
}

func runScore(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	var batch []contracts.RawTripRecord
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	scored := quality.EvaluateBatch(batch)
	summary := quality.Aggregate(scored)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if !scoreSummaryOnly {
		if err := enc.Encode(scored); err != nil {
			return err
		}
	}
	return enc.Encode(summary)
}
