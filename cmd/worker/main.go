package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/handler/health"
	promhandler "github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/worker"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	healthAddr := flag.String("health-addr", ":8081", "address of the health and metrics endpoint")
	flag.Parse()

	if err := run(*configPath, *healthAddr); err != nil {
		log.Fatal().Err(err).Msg("worker failed")
	}
}

func run(configPath, healthAddr string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return errors.New("the outbox worker requires the postgres driver")
	}
	if !cfg.Redis.Enabled {
		return errors.New("the outbox worker requires redis to be enabled")
	}

	level := logger.ParseLevel(cfg.Log.Level)
	zerolog.SetGlobalLevel(level)
	appLogger := logger.NewLogger(&logger.Config{Level: level, Pretty: cfg.Log.Pretty}).
		WithFields(map[string]interface{}{"component": "outbox-worker"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, appLogger.Zerolog())
	if err != nil {
		return fmt.Errorf("failed to create redis broker: %w", err)
	}
	defer broker.Close()

	registry := prometheus.NewRegistry()
	processor, err := worker.NewOutboxProcessor(
		postgres.NewRepositories(db).Outbox,
		broker,
		worker.OutboxProcessorConfig{
			Channel:       cfg.Redis.Channel,
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
		},
		appLogger,
		metrics.NewMetrics("clinic", "outbox_worker", registry),
	)
	if err != nil {
		return fmt.Errorf("invalid outbox configuration: %w", err)
	}

	srv := healthServer(healthAddr, db, registry)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(err, "health server failed")
			os.Exit(1)
		}
	}()
	defer srv.Close()

	processor.Start(ctx)
	return nil
}

func healthServer(addr string, db health.Pinger, registry *prometheus.Registry) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(db).RegisterRoutes(engine)
	engine.GET("/metrics", promhandler.New(registry).Handler())

	return &http.Server{Addr: addr, Handler: engine}
}
