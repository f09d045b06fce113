package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridedata/bikeqc/internal/api"
	"github.com/ridedata/bikeqc/internal/api/handlers"
	"github.com/ridedata/bikeqc/internal/ingest"
	"github.com/ridedata/bikeqc/internal/storage"
	"github.com/ridedata/bikeqc/pkg/config"
	"github.com/ridedata/bikeqc/pkg/database"
	"github.com/ridedata/bikeqc/pkg/logger"
	"github.com/ridedata/bikeqc/pkg/redis"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the ingest and reporting API server",
	Long: `Start the REST API server.

Endpoints:
  GET  /health                        - Health check
  POST /api/v1/trips                  - Submit a raw trip event
  GET  /api/v1/trips/{id}             - Look up a scored trip
  GET  /api/v1/quality/summary        - Latest batch quality summary
  GET  /api/v1/quality/daily/{date}   - Per-day trip statistics`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "override the listen port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
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

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	publisher := ingest.NewPublisher(cfg, log)
	defer publisher.Close()

	tripRepo := storage.NewTripRepository(db.Pool)
	summaryRepo := storage.NewSummaryRepository(db.Pool)
	dailyRepo := storage.NewDailyStatsRepository(db.Pool)

	cache := redis.NewCache(redisClient, "bikeqc")
	limiter := redis.NewRateLimiter(redisClient, "bikeqc")

	tripHandler := handlers.NewTripHandler(publisher, tripRepo, limiter, log)
	qualityHandler := handlers.NewQualityHandler(summaryRepo, dailyRepo, cache, log)

	router := api.NewRouter(tripHandler, qualityHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
