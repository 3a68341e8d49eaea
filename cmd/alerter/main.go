package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	httpadapter "github.com/powderline/snowfall-alert-service/internal/adapter/http"
	kafkaadapter "github.com/powderline/snowfall-alert-service/internal/adapter/kafka"
	"github.com/powderline/snowfall-alert-service/internal/adapter/openweather"
	"github.com/powderline/snowfall-alert-service/internal/adapter/redisstore"
	"github.com/powderline/snowfall-alert-service/internal/adapter/slack"
	"github.com/powderline/snowfall-alert-service/internal/adapter/weather"
	"github.com/powderline/snowfall-alert-service/internal/adapter/weatherapi"
	"github.com/powderline/snowfall-alert-service/internal/config"
	"github.com/powderline/snowfall-alert-service/internal/domain"
	"github.com/powderline/snowfall-alert-service/internal/engine"
	"github.com/powderline/snowfall-alert-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	verifier, err := domain.NewVerifier(cfg.VerificationTolerance, cfg.NoiseFloorInches)
	if err != nil {
		logger.Error("invalid verifier settings", "error", err)
		os.Exit(1)
	}
	classifier, err := domain.NewClassifier(cfg.Thresholds)
	if err != nil {
		logger.Error("invalid thresholds", "error", err)
		os.Exit(1)
	}

	// Both providers sit behind a shared-quota cache and a per-provider
	// token bucket.
	primary := decorate(
		openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.FetchTimeout, logger), cfg)
	secondary := decorate(
		weatherapi.NewClient(cfg.WeatherAPIKey, cfg.FetchTimeout, logger), cfg)

	var store engine.CooldownStore
	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		store = redisstore.NewStore(client)
		logger.Info("cooldown state persisted in redis", "addr", cfg.RedisAddr)
	} else {
		store = engine.NewMemoryStore()
		logger.Info("cooldown state held in memory")
	}

	cooldown, err := engine.NewCooldownTracker(store, cfg.CooldownWindow)
	if err != nil {
		logger.Error("invalid cooldown window", "error", err)
		os.Exit(1)
	}

	orchestrator := engine.NewOrchestrator(
		primary, secondary, verifier, classifier, cooldown, cfg.Locations, logger, metrics)

	notifier := slack.NewNotifier(
		cfg.SlackWebhookURL,
		cfg.SlackMonitoringWebhookURL,
		cfg.FetchTimeout,
		logger,
		slack.WithDisabled(cfg.NotificationsDisabled),
	)

	var publisher engine.DecisionPublisher
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		kafkaWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaDecisionTopic, logger)
		publisher = kafkaWriter
		logger.Info("decision stream enabled", "topic", cfg.KafkaDecisionTopic)
	}

	runner, err := engine.NewRunner(orchestrator, notifier, publisher, cfg.CheckInterval, logger, metrics)
	if err != nil {
		logger.Error("invalid runner settings", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, runner, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the polling engine.
	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("engine error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func decorate(src domain.SnowSource, cfg *config.Config) domain.SnowSource {
	limited := weather.NewRateLimitedSource(src, cfg.ProviderRPS, len(cfg.Locations))
	return weather.NewCachedSource(limited, cfg.CacheTTL, cfg.CacheSize)
}
