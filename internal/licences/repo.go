package licences

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/scope"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	pkgpagination "github.com/ufsc-france/gestion-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes licence persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, licence *models.Licence) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Licence, error)
	List(ctx context.Context, q listQuery) ([]models.Licence, error)
	ListAll(ctx context.Context, clubID uuid.UUID, params ListParams) ([]models.Licence, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) (int64, error)
	Transition(ctx context.Context, id uuid.UUID, fromStatut string, values map[string]any) (int64, error)
	ClubRegion(ctx context.Context, clubID uuid.UUID) (string, error)
}

type listQuery struct {
	clubID   *uuid.UUID
	scope    *scope.Scope
	statuses []string
	season   string
	search   string
	limit    int
	cursor   *pkgpagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a licence repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, licence *models.Licence) error {
	return r.db.WithContext(ctx).Create(licence).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Licence, error) {
	var licence models.Licence
	if err := r.db.WithContext(ctx).First(&licence, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &licence, nil
}

// List returns licences newest first using cursor pagination. Staff queries
// carry a scope that restricts rows to clubs of the allowed regions.
func (r *repository) List(ctx context.Context, q listQuery) ([]models.Licence, error) {
	query := r.filtered(ctx, q)
	if q.cursor != nil {
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", q.cursor.CreatedAt, q.cursor.CreatedAt, q.cursor.ID)
	}

	var rows []models.Licence
	if err := query.Order("created_at DESC").Order("id DESC").Limit(q.limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAll returns every licence of the club matching params, oldest first.
// Pagination fields of params are ignored.
func (r *repository) ListAll(ctx context.Context, clubID uuid.UUID, params ListParams) ([]models.Licence, error) {
	q := listQuery{clubID: &clubID, season: strings.TrimSpace(params.Season), search: strings.TrimSpace(params.Search)}
	if params.Statut != nil {
		q.statuses = statusFilter(*params.Statut)
	}
	var rows []models.Licence
	if err := r.filtered(ctx, q).Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) filtered(ctx context.Context, q listQuery) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Licence{})
	if q.clubID != nil {
		query = query.Where("club_id = ?", *q.clubID)
	}
	if q.scope != nil {
		if cond, args := q.scope.BuildCondition("region", ""); cond != "" {
			query = query.Where("club_id IN (SELECT id FROM clubs WHERE "+cond+")", args...)
		}
	}
	if len(q.statuses) > 0 {
		query = query.Where("LOWER(TRIM(statut)) IN ?", q.statuses)
	}
	if q.season != "" {
		query = query.Where("season = ?", q.season)
	}
	if q.search != "" {
		like := "%" + strings.ToLower(q.search) + "%"
		query = query.Where("(LOWER(last_name) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(email) LIKE ?)", like, like, like)
	}
	return query
}

func (r *repository) UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Licence{}).
		Where("id = ?", id).
		Updates(values)
	return res.RowsAffected, res.Error
}

// Transition updates the licence only while statut still holds the raw value
// the caller checked, so two concurrent decisions cannot both apply.
func (r *repository) Transition(ctx context.Context, id uuid.UUID, fromStatut string, values map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Licence{}).
		Where("id = ?", id).
		Where("statut = ?", fromStatut).
		Updates(values)
	return res.RowsAffected, res.Error
}

func (r *repository) ClubRegion(ctx context.Context, clubID uuid.UUID) (string, error) {
	var club models.Club
	if err := r.db.WithContext(ctx).
		Select("id", "region").
		Where("id = ?", clubID).
		First(&club).Error; err != nil {
		return "", err
	}
	return club.Region, nil
}
