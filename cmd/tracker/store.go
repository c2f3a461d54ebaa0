package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Spok95/material-tracker/internal/config"
	"github.com/Spok95/material-tracker/internal/domain/materials"
	"github.com/Spok95/material-tracker/internal/infra/db"
	httpx "github.com/Spok95/material-tracker/internal/infra/http"
	"github.com/Spok95/material-tracker/internal/infra/metrics"
	"github.com/Spok95/material-tracker/internal/infra/sqlitestore"
)

// store собранный сервис материалов плюс то, что нужно закрыть при выходе.
type store struct {
	svc   *materials.Service
	ping  httpx.Pinger
	close func()
}

// openStore выбирает хранилище по storage.driver, применяет миграции и собирает сервис.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (*store, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var (
		repo    materials.Repository
		ping    httpx.Pinger
		closeFn func()
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := db.Migrate(cfg.Postgres.DSN, log); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("migrations applied")

		pool, err := db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		repo, ping, closeFn = materials.NewRepo(pool), pool.Ping, pool.Close

	case config.DriverSQLite:
		gdb, err := sqlitestore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		repo, ping = sqlitestore.NewRepo(gdb), sqlDB.PingContext
		closeFn = func() { _ = sqlDB.Close() }

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	log.Info("storage ready", "driver", cfg.Storage.Driver)

	opts := []materials.Option{materials.WithLocation(loc)}
	if reg != nil {
		opts = append(opts, materials.WithMetrics(metrics.New(reg)))
	}
	return &store{
		svc:   materials.NewService(repo, log, opts...),
		ping:  ping,
		close: closeFn,
	}, nil
}
