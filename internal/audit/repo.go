package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgpagination "github.com/ufsc-france/gestion-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists audit entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, q listQuery) ([]models.AuditLog, error)
	CountByAction(ctx context.Context) ([]ActionCount, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type listQuery struct {
	action enums.AuditAction
	clubID *uuid.UUID
	limit  int
	cursor *pkgpagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, q listQuery) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if q.action != "" {
		query = query.Where("action = ?", q.action)
	}
	if q.clubID != nil {
		query = query.Where("club_id = ?", *q.clubID)
	}
	if q.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", q.cursor.CreatedAt, q.cursor.CreatedAt, q.cursor.ID)
	}

	var rows []models.AuditLog
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(q.limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountByAction(ctx context.Context) ([]ActionCount, error) {
	var counts []ActionCount
	if err := r.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Select("action, COUNT(*) AS count").
		Group("action").
		Order("action ASC").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	return res.RowsAffected, res.Error
}
