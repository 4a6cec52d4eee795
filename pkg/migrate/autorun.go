package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

// AutoRunEnabled reports whether services should apply migrations on boot.
// Only dev environments with UFSC_AUTO_MIGRATE set qualify.
func AutoRunEnabled(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev applies the embedded migrations when AutoRunEnabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !AutoRunEnabled(cfg) {
		return nil
	}
	conn, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	dialect := DialectFor(cfg.DB)
	ctx = logg.WithField(ctx, "dialect", dialect)
	start := time.Now()
	if err := Up(ctx, conn, dialect); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logg.Info(logg.WithField(ctx, "elapsed_ms", time.Since(start).Milliseconds()), "migrate.autorun.done")
	return nil
}
