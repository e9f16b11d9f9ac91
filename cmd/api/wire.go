package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/app"
	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type storage struct {
	repos repository.Repositories
	db    *sqlx.DB
}

func (s *storage) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// openStorage connects the configured driver. The postgres driver runs
// pending migrations first when auto_migrate is set.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if strings.EqualFold(cfg.Database.Driver, "memory") {
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return &storage{repos: memory.NewStore().Repositories()}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
			return nil, err
		}
	}
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &storage{repos: postgres.NewRepositories(db), db: db}, nil
}

func newApp(cfg *config.Config, st *storage, appLogger *logger.Logger) (*app.App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := app.Deps{
		Repos:    st.repos,
		Logger:   appLogger,
		Registry: registry,
	}
	if st.db != nil {
		deps.DB = st.db
	}
	return app.New(cfg, deps)
}
