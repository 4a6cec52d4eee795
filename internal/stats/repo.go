package stats

import (
	"context"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"gorm.io/gorm"
)

// statusRow is one GROUP BY bucket; statut is raw and normalised by the service.
type statusRow struct {
	ClubID     uuid.UUID
	Statut     string
	IsIncluded bool
	Paid       bool
	Count      int64
}

type clubRow struct {
	ID     uuid.UUID
	Name   string
	Region string
}

// Repository aggregates licence counts.
type Repository interface {
	StatusCounts(ctx context.Context, clubID *uuid.UUID, season string) ([]statusRow, error)
	ListClubs(ctx context.Context) ([]clubRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) StatusCounts(ctx context.Context, clubID *uuid.UUID, season string) ([]statusRow, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Licence{}).
		Select("club_id, statut, is_included, CASE WHEN paid_season = ? THEN 1 ELSE 0 END AS paid, COUNT(*) AS count", season).
		Where("season = ?", season)
	if clubID != nil {
		query = query.Where("club_id = ?", *clubID)
	}
	var rows []statusRow
	if err := query.
		Group("club_id, statut, is_included, paid").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListClubs(ctx context.Context) ([]clubRow, error) {
	var rows []clubRow
	if err := r.db.WithContext(ctx).
		Model(&models.Club{}).
		Select("id, name, region").
		Order("name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
