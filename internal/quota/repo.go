package quota

import (
	"context"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads and increments the per-club licence quota.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ClubQuota(ctx context.Context, clubID uuid.UUID) (int, error)
	ClubQuotaForUpdate(ctx context.Context, clubID uuid.UUID) (int, error)
	CountUsed(ctx context.Context, clubID uuid.UUID, season string) (int64, error)
	Increment(ctx context.Context, clubID uuid.UUID, qty int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a quota repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ClubQuota(ctx context.Context, clubID uuid.UUID) (int, error) {
	var club models.Club
	if err := r.db.WithContext(ctx).
		Select("id", "quota_licences").
		Where("id = ?", clubID).
		First(&club).Error; err != nil {
		return 0, err
	}
	return club.QuotaLicences, nil
}

// ClubQuotaForUpdate locks the club row until the surrounding transaction ends.
// SQLite has no row locks and serialises writers instead.
func (r *repository) ClubQuotaForUpdate(ctx context.Context, clubID uuid.UUID) (int, error) {
	var club models.Club
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "quota_licences").
		Where("id = ?", clubID).
		First(&club).Error; err != nil {
		return 0, err
	}
	return club.QuotaLicences, nil
}

// CountUsed counts licences consuming quota: included ones and those paid for the season.
func (r *repository) CountUsed(ctx context.Context, clubID uuid.UUID, season string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Licence{}).
		Where("club_id = ?", clubID).
		Where("(is_included = ? OR paid_season = ?)", true, season).
		Count(&count).Error
	return count, err
}

// Increment adds qty in a single statement so concurrent credits never lose updates.
func (r *repository) Increment(ctx context.Context, clubID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Club{}).
		Where("id = ?", clubID).
		UpdateColumn("quota_licences", gorm.Expr("quota_licences + ?", qty))
	return res.RowsAffected, res.Error
}
