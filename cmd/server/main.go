package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Artemisxxx37/my-health/internal/agent"
	"github.com/Artemisxxx37/my-health/internal/api"
	"github.com/Artemisxxx37/my-health/internal/config"
	"github.com/Artemisxxx37/my-health/internal/diagnosis"
	"github.com/Artemisxxx37/my-health/internal/domain"
	"github.com/Artemisxxx37/my-health/internal/ensemble"
	"github.com/Artemisxxx37/my-health/internal/extractor"
	"github.com/Artemisxxx37/my-health/internal/history"
	"github.com/Artemisxxx37/my-health/internal/repository"
	"github.com/Artemisxxx37/my-health/internal/risk"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("starting my-health server")

	store, err := newStore(configManager)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize storage")
	}
	defer store.Close()

	classifier := ensemble.New(logger, cfg.Classifier.Seed)
	if err := loadOrTrain(logger, classifier, cfg.Classifier); err != nil {
		logger.WithError(err).Fatal("failed to prepare classifier")
	}

	historyStore, err := newHistoryStore(cfg.Cache)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize conversation cache")
	}

	conversationalAgent := agent.New(logger, agent.Config{
		APIKey:  cfg.Agent.APIKey,
		Model:   cfg.Agent.Model,
		History: historyStore,
	})

	handler := api.NewHandler(
		logger,
		extractor.New(logger, "fr"),
		classifier,
		diagnosis.New(logger),
		history.New(logger),
		risk.NewScorer(logger),
		conversationalAgent,
		store,
		cfg.Classifier.ArtifactPath,
	)

	server := api.NewServer(cfg, logger, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("server failed")
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(cfg.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

func newStore(m *config.Manager) (repository.Store, error) {
	db := m.GetDatabaseConfig()
	switch strings.ToLower(db.Driver) {
	case "postgres":
		return repository.NewPostgresStore(m.GetDatabaseConnectionString())
	default:
		return repository.NewSQLiteStore(db.Path)
	}
}

func newHistoryStore(cfg config.CacheConfig) (agent.HistoryStore, error) {
	if strings.ToLower(cfg.Backend) == "redis" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return agent.NewRedisHistoryStore(redis.NewClient(opts), cfg.TTL), nil
	}
	return agent.NewMemoryHistoryStore(cfg.MaxUsers)
}

// loadOrTrain restores the persisted model panel, retraining from the
// built-in corpus when the artifact is missing or corrupt.
func loadOrTrain(logger *logrus.Logger, classifier *ensemble.Classifier, cfg config.ClassifierConfig) error {
	err := classifier.Load(cfg.ArtifactPath)
	if err == nil {
		logger.WithField("path", cfg.ArtifactPath).Info("model artifact loaded")
		return nil
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("no model artifact found, training")
	case domain.IsCorruptArtifact(err):
		logger.WithError(err).Warn("model artifact corrupt, retraining")
	case !cfg.TrainOnStartup:
		return err
	default:
		logger.WithError(err).Warn("model artifact unavailable, training")
	}

	if _, err := classifier.Train(); err != nil {
		return err
	}
	if err := classifier.Save(cfg.ArtifactPath); err != nil {
		logger.WithError(err).Warn("failed to persist model artifact")
	}
	return nil
}
