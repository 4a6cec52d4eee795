package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ufsc-france/gestion-backend/api/controllers"
	"github.com/ufsc-france/gestion-backend/api/routes"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/internal/auth"
	"github.com/ufsc-france/gestion-backend/internal/clubs"
	"github.com/ufsc-france/gestion-backend/internal/commerce"
	"github.com/ufsc-france/gestion-backend/internal/export"
	"github.com/ufsc-france/gestion-backend/internal/importer"
	"github.com/ufsc-france/gestion-backend/internal/licences"
	"github.com/ufsc-france/gestion-backend/internal/quota"
	"github.com/ufsc-france/gestion-backend/internal/scope"
	"github.com/ufsc-france/gestion-backend/internal/settings"
	"github.com/ufsc-france/gestion-backend/internal/stats"
	"github.com/ufsc-france/gestion-backend/internal/users"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"github.com/ufsc-france/gestion-backend/pkg/metrics"
	"github.com/ufsc-france/gestion-backend/pkg/migrate"
	"github.com/ufsc-france/gestion-backend/pkg/redis"
	"github.com/ufsc-france/gestion-backend/pkg/storage/local"
)

const (
	webhookScope    = "commerce-webhook"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	uploads, err := local.New(cfg.Uploads)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare uploads dir", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	commerceMetrics := metrics.NewCommerceMetrics(registry)

	deps, err := buildDeps(cfg, logg, dbClient, redisClient, uploads, commerceMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}
	deps.Gatherer = registry
	deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)
	deps.Pingers = map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
		"uploads":  uploads,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}

func buildDeps(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	uploads *local.Store,
	commerceMetrics *metrics.CommerceMetrics,
) (routes.Deps, error) {
	gdb := dbClient.DB()
	userRepo := users.NewRepository(gdb)

	auditSvc, err := audit.NewService(audit.NewRepository(gdb))
	if err != nil {
		return routes.Deps{}, err
	}
	quotaSvc, err := quota.NewService(quota.NewRepository(gdb))
	if err != nil {
		return routes.Deps{}, err
	}
	settingsSvc, err := settings.NewService(settings.ServiceParams{
		Repo:  settings.NewRepository(gdb),
		DB:    dbClient,
		Audit: auditSvc,
		Base:  settings.BaseCalculator(cfg.Season),
	})
	if err != nil {
		return routes.Deps{}, err
	}
	statsSvc, err := stats.NewService(stats.ServiceParams{
		Repo:   stats.NewRepository(gdb),
		Quota:  quotaSvc,
		Cache:  redisClient,
		Logger: logg,
		TTL:    cfg.Stats.CacheTTL,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	clubRepo := clubs.NewRepository(gdb)
	clubSvc, err := clubs.NewService(clubs.ServiceParams{
		Repo:         clubRepo,
		DB:           dbClient,
		Quota:        quotaSvc,
		Seasons:      settingsSvc,
		Audit:        auditSvc,
		Stats:        statsSvc,
		Storage:      uploads,
		Metrics:      commerceMetrics,
		Logger:       logg,
		MaxLogoBytes: int64(cfg.Uploads.MaxLogoKB) << 10,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	bridge, err := commerce.NewBridge(commerce.BridgeParams{
		Repo:     commerce.NewRepository(gdb),
		Clubs:    clubRepo,
		DB:       dbClient,
		Quota:    quotaSvc,
		Seasons:  settingsSvc,
		Audit:    auditSvc,
		Stats:    statsSvc,
		Metrics:  commerceMetrics,
		Logger:   logg,
		Commerce: cfg.Commerce,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	licenceRepo := licences.NewRepository(gdb)
	licenceSvc, err := licences.NewService(licences.ServiceParams{
		Repo:    licenceRepo,
		DB:      dbClient,
		Clubs:   clubSvc,
		Quota:   quotaSvc,
		Seasons: settingsSvc,
		Orders:  bridge,
		Audit:   auditSvc,
		Stats:   statsSvc,
		Logger:  logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	importSvc, err := importer.NewService(importer.ServiceParams{
		Licences: licenceRepo,
		DB:       dbClient,
		Clubs:    clubSvc,
		Quota:    quotaSvc,
		Seasons:  settingsSvc,
		Orders:   bridge,
		Audit:    auditSvc,
		Stats:    statsSvc,
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	exportSvc, err := export.NewService(export.ServiceParams{
		Licences:    licenceRepo,
		Clubs:       clubSvc,
		Audit:       auditSvc,
		Logger:      logg,
		TempDir:     cfg.Export.TempDir,
		XLSXEnabled: cfg.FeatureFlags.XLSXExport,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	scopes, err := scope.NewResolver(userRepo)
	if err != nil {
		return routes.Deps{}, err
	}
	guard, err := commerce.NewDeliveryGuard(redisClient, cfg.Commerce.IdempotencyTTL, webhookScope)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config:    cfg,
		Logger:    logg,
		RateLimit: redisClient,
		Scopes:    scopes,
		Guard:     guard,
		Auth:      authSvc,
		Clubs:     clubSvc,
		Licences:  licenceSvc,
		Stats:     statsSvc,
		Settings:  settingsSvc,
		Audit:     auditSvc,
		Export:    exportSvc,
		Importer:  importSvc,
		Commerce:  bridge,
	}, nil
}
