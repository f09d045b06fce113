package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ridedata/bikeqc/internal/ingest"
	"github.com/ridedata/bikeqc/internal/storage"
	"github.com/ridedata/bikeqc/pkg/config"
	"github.com/ridedata/bikeqc/pkg/database"
	"github.com/ridedata/bikeqc/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the trip-event scoring worker",
	Long: `Consume raw trip events from the queue, score them against the
quality rubric, and persist the results.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := storage.InitSchema(cmd.Context(), db.Pool); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	tripRepo := storage.NewTripRepository(db.Pool)
	consumer := ingest.NewConsumer(cfg, tripRepo, log)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("consumer stopped: %w", err)
	}

	log.Info("Worker stopped")
	return nil
}
