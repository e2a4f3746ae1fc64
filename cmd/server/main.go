// Package main provides the entry point for the accumulator engine API server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/acca-engine/internal/builder"
	"github.com/yourusername/acca-engine/internal/config"
	"github.com/yourusername/acca-engine/internal/datasource"
	"github.com/yourusername/acca-engine/internal/logger"
	"github.com/yourusername/acca-engine/internal/metrics"
	"github.com/yourusername/acca-engine/internal/probability"
	"github.com/yourusername/acca-engine/internal/scheduler"
	"github.com/yourusername/acca-engine/internal/server"
	"github.com/yourusername/acca-engine/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
	)
	flag.Parse()

	cfg := loadConfigWithSecrets(*configPath)
	log := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	metrics.InitRegistry()

	store, err := storage.NewStore(cfg.Storage.Path, log)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	model := probability.NewModel(log)
	seedHistoricalStats(store, model, log)

	oddsClient := datasource.NewClient(cfg.OddsAPI, log)
	defer oddsClient.Close()

	bld := builder.NewBuilder(model, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Scheduler.Enabled {
		sched := scheduler.NewScheduler(oddsClient, store, log,
			time.Duration(cfg.Scheduler.RefreshTimeout)*time.Second)
		if err := sched.ScheduleOddsRefresh(cfg.Scheduler.RefreshCron, cfg.OddsAPI.DefaultSport); err != nil {
			log.Fatalf("Failed to schedule odds refresh: %v", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := server.New(cfg, store, oddsClient, model, bld, log)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Info("Shutdown complete")
}

func loadConfigWithSecrets(path string) *config.Config {
	bootstrapLog := logrus.New()

	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		bootstrapLog.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			bootstrapLog.Fatal("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			bootstrapLog.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		bootstrapLog.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// seedHistoricalStats loads the probability model from storage, seeding the
// store with development data when it holds no stats yet.
func seedHistoricalStats(store *storage.Store, model *probability.Model, log *logrus.Logger) {
	stats := store.GetTeamStats()
	if len(stats) == 0 {
		stats = datasource.MockTeamStats()
		if err := store.SaveTeamStats(stats); err != nil {
			log.WithError(err).Warn("Failed to persist seed stats")
		}
		log.WithField("teams", len(stats)).Info("Seeded development historical stats")
	}

	model.LoadHistoricalStats(stats)
	metrics.HistoricalTeams.Set(float64(model.StatsCount()))
}
