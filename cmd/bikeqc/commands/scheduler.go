package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ridedata/bikeqc/internal/scheduler"
	"github.com/ridedata/bikeqc/internal/scheduler/jobs"
	"github.com/ridedata/bikeqc/internal/storage"
	"github.com/ridedata/bikeqc/pkg/config"
	"github.com/ridedata/bikeqc/pkg/database"
	"github.com/ridedata/bikeqc/pkg/logger"
	"github.com/ridedata/bikeqc/pkg/redis"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Start the rollup job scheduler",
	Long: `Run the periodic pipeline jobs:

  quality_rollup - aggregate recently scored trips into a summary
  daily_stats    - compute yesterday's per-day trip statistics`,
	RunE: runScheduler,
}

var runNowJob string

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.Flags().StringVar(&runNowJob, "run-now", "", "run one job immediately and exit")
}

func runScheduler(cmd *cobra.Command, args []string) error {
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

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	tripRepo := storage.NewTripRepository(db.Pool)
	summaryRepo := storage.NewSummaryRepository(db.Pool)
	dailyRepo := storage.NewDailyStatsRepository(db.Pool)
	cache := redis.NewCache(redisClient, "bikeqc")

	sched := scheduler.New(log)

	if err := sched.AddJob(jobs.NewQualityRollup(cfg, tripRepo, summaryRepo, cache, log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewDailyStats(cfg, tripRepo, dailyRepo, cache, log)); err != nil {
		return err
	}

	if runNowJob != "" {
		return sched.RunNow(runNowJob)
	}

	sched.Start()
	log.WithField("jobs", sched.JobNames()).Info("Scheduler running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()

	for name, stats := range sched.Stats() {
		log.WithFields(map[string]interface{}{
			"job":      name,
			"runs":     stats.TotalRuns,
			"failures": stats.FailureCount,
		}).Info("Job stats")
	}
	return nil
}
