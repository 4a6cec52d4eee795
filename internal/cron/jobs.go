package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

const (
	defaultExportMaxAge  = time.Hour
	defaultAuditRetained = 365 * 24 * time.Hour
)

type exportCleaner interface {
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}

type auditCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

type ExportCleanupJobParams struct {
	Logger  *logger.Logger
	Exports exportCleaner
	MaxAge  time.Duration
}

// NewExportCleanupJob removes export files that were never streamed or whose
// download was interrupted.
func NewExportCleanupJob(params ExportCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Exports == nil {
		return nil, fmt.Errorf("export service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultExportMaxAge
	}
	return &exportCleanupJob{logg: params.Logger, exports: params.Exports, maxAge: maxAge}, nil
}

type exportCleanupJob struct {
	logg    *logger.Logger
	exports exportCleaner
	maxAge  time.Duration
}

func (j *exportCleanupJob) Name() string { return "export-cleanup" }

func (j *exportCleanupJob) Run(ctx context.Context) error {
	removed, err := j.exports.Cleanup(ctx, j.maxAge)
	if err != nil {
		return fmt.Errorf("export cleanup removed %d files: %w", removed, err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"max_age":       j.maxAge.String(),
		"files_removed": removed,
	})
	j.logg.Info(logCtx, "export cleanup complete")
	return nil
}

type AuditRetentionJobParams struct {
	Logger    *logger.Logger
	Audit     auditCleaner
	Retention time.Duration
}

// NewAuditRetentionJob deletes audit rows older than the retention window.
func NewAuditRetentionJob(params AuditRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit service required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultAuditRetained
	}
	return &auditRetentionJob{logg: params.Logger, audit: params.Audit, retention: retention}, nil
}

type auditRetentionJob struct {
	logg      *logger.Logger
	audit     auditCleaner
	retention time.Duration
}

func (j *auditRetentionJob) Name() string { return "audit-retention" }

func (j *auditRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.audit.Cleanup(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("audit retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention_days": int(j.retention.Hours() / 24),
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "audit retention complete")
	return nil
}
