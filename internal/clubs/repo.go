package clubs

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/scope"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgpagination "github.com/ufsc-france/gestion-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes club persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, club *models.Club) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Club, error)
	FindByResponsible(ctx context.Context, userID uuid.UUID) (*models.Club, error)
	List(ctx context.Context, q listQuery) ([]models.Club, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) (int64, error)
	AssignResponsible(ctx context.Context, clubID, userID uuid.UUID) (int64, error)
	MarkAffiliationPaid(ctx context.Context, id uuid.UUID, at time.Time, season string) (int64, error)
}

type listQuery struct {
	scope    scope.Scope
	statuses []string
	search   string
	limit    int
	cursor   *pkgpagination.Cursor
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, club *models.Club) error {
	return r.db.WithContext(ctx).Create(club).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Club, error) {
	var club models.Club
	if err := r.db.WithContext(ctx).First(&club, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *repository) FindByResponsible(ctx context.Context, userID uuid.UUID) (*models.Club, error) {
	var club models.Club
	if err := r.db.WithContext(ctx).Where("responsible_id = ?", userID).First(&club).Error; err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *repository) List(ctx context.Context, q listQuery) ([]models.Club, error) {
	query := q.scope.Apply(r.db.WithContext(ctx).Model(&models.Club{}), "region")
	if len(q.statuses) > 0 {
		query = query.Where("status IN ?", q.statuses)
	}
	if q.search != "" {
		like := "%" + strings.ToLower(q.search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(affiliation_number, '')) LIKE ?)", like, like)
	}
	if q.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", q.cursor.CreatedAt, q.cursor.CreatedAt, q.cursor.ID)
	}

	var rows []models.Club
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(q.limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Club{}).
		Where("id = ?", id).
		Updates(values)
	return res.RowsAffected, res.Error
}

func (r *repository) AssignResponsible(ctx context.Context, clubID, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Club{}).
		Where("id = ?", clubID).
		UpdateColumn("responsible_id", userID)
	return res.RowsAffected, res.Error
}

// MarkAffiliationPaid writes absolute values so replaying it is harmless.
func (r *repository) MarkAffiliationPaid(ctx context.Context, id uuid.UUID, at time.Time, season string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Club{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"affiliation_paid_at": at,
			"affiliation_season":  season,
			"status":              string(enums.ClubStatusActive),
		})
	return res.RowsAffected, res.Error
}
