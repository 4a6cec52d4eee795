package commerce

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository persists commerce orders and the licence side effects of paying them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.CommerceOrder) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.CommerceOrder, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, values map[string]any) (int64, error)
	CreateItems(ctx context.Context, items []models.CommerceOrderItem) error
	Claim(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	MarkLicencesPaid(ctx context.Context, clubID uuid.UUID, ids []uuid.UUID, season string) (int64, error)
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

// CreateOrder inserts the order together with its items.
func (r *repository) CreateOrder(ctx context.Context, order *models.CommerceOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.CommerceOrder, error) {
	var order models.CommerceOrder
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, id uuid.UUID, values map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CommerceOrder{}).
		Where("id = ?", id).
		Updates(values)
	return res.RowsAffected, res.Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.CommerceOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// Claim stamps processed_at once; a second claim affects no rows.
func (r *repository) Claim(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CommerceOrder{}).
		Where("id = ? AND processed_at IS NULL", id).
		UpdateColumn("processed_at", at)
	return res.RowsAffected, res.Error
}

// MarkLicencesPaid writes absolute values, so replaying it changes nothing.
// Ids belonging to another club are left untouched.
func (r *repository) MarkLicencesPaid(ctx context.Context, clubID uuid.UUID, ids []uuid.UUID, season string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Licence{}).
		Where("id IN ? AND club_id = ?", ids, clubID).
		Updates(map[string]any{
			"statut":         string(enums.LicenceStatusPending),
			"is_included":    false,
			"paid_season":    season,
			"payment_status": string(enums.PaymentStatusPaid),
		})
	return res.RowsAffected, res.Error
}
