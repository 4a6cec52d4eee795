package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/internal/auth"
	"github.com/ufsc-france/gestion-backend/internal/quota"
	"github.com/ufsc-france/gestion-backend/internal/settings"
	"github.com/ufsc-france/gestion-backend/internal/stats"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"github.com/ufsc-france/gestion-backend/pkg/redis"
	"github.com/ufsc-france/gestion-backend/pkg/season"
	"github.com/ufsc-france/gestion-backend/pkg/types"
)

type statsOps interface {
	ClubStats(ctx context.Context, clubID uuid.UUID, season string) (*stats.ClubStats, error)
	Overview(ctx context.Context, season string) (*stats.Overview, error)
	Purge(ctx context.Context) (int, error)
	Info(ctx context.Context) (*stats.CacheInfo, error)
}

type auditOps interface {
	List(ctx context.Context, filter audit.ListFilter) (*types.Page[audit.Record], error)
	Stats(ctx context.Context) (*audit.Stats, error)
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

type seasonOps interface {
	CurrentSeason(ctx context.Context) (season.Season, error)
}

// backend is what subcommands operate on. Tests swap in stubs.
type backend struct {
	Stats     statsOps
	Audit     auditOps
	Seasons   seasonOps
	Provision auth.ProvisionService
	closers   []func() error
}

func (b *backend) Close() error {
	var err error
	for i := len(b.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, b.closers[i]())
	}
	return err
}

type opener func(ctx context.Context) (*backend, error)

// loadDotenv reads .env when present. Warnings go to w so stdout stays
// parseable.
func loadDotenv(w io.Writer) {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(w, "warning: .env not loaded, relying on environment: %v\n", err)
	}
}

// connect wires the services against the configured database and redis.
func connect(ctx context.Context) (*backend, error) {
	loadDotenv(os.Stderr)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Keep stdout clean for command output.
	logg := logger.New(logger.Options{
		ServiceName: "ufscctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Output:      io.Discard,
	})

	b := &backend{}
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, dbClient.Close)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.closers = append(b.closers, redisClient.Close)

	gdb := dbClient.DB()
	auditSvc, err := audit.NewService(audit.NewRepository(gdb))
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	quotaSvc, err := quota.NewService(quota.NewRepository(gdb))
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	settingsSvc, err := settings.NewService(settings.ServiceParams{
		Repo:  settings.NewRepository(gdb),
		DB:    dbClient,
		Audit: auditSvc,
		Base:  settings.BaseCalculator(cfg.Season),
	})
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	statsSvc, err := stats.NewService(stats.ServiceParams{
		Repo:   stats.NewRepository(gdb),
		Quota:  quotaSvc,
		Cache:  redisClient,
		Logger: logg,
		TTL:    cfg.Stats.CacheTTL,
	})
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	provision, err := auth.NewProvisionService(auth.ProvisionServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	b.Stats = statsSvc
	b.Audit = auditSvc
	b.Seasons = settingsSvc
	b.Provision = provision
	return b, nil
}
