package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	dbtypes "github.com/ufsc-france/gestion-backend/pkg/db/types"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	"gorm.io/gorm"
)

// CommerceOrder is the local record of an order placed on the commerce platform.
// ProcessedAt is the per-order claim that makes fulfilment run at most once.
type CommerceOrder struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ExternalRef *string             `gorm:"column:external_ref"`
	ClubID      *uuid.UUID          `gorm:"column:club_id;type:uuid"`
	Status      enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	Season      *string             `gorm:"column:season"`
	Total       decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Currency    string              `gorm:"column:currency;not null;default:'EUR'"`
	ProcessedAt *time.Time          `gorm:"column:processed_at"`
	Items       []CommerceOrderItem `gorm:"foreignKey:OrderID;references:ID"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (CommerceOrder) TableName() string { return "commerce_orders" }

func (o *CommerceOrder) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// CommerceOrderItem is one order line. ClubID and LicenceIDs are the metadata
// that link a payment to the club and licences it unlocks.
type CommerceOrderItem struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID        `gorm:"column:order_id;type:uuid;not null"`
	ProductID  string           `gorm:"column:product_id;not null"`
	Quantity   int              `gorm:"column:quantity;not null"`
	ClubID     *uuid.UUID       `gorm:"column:club_id;type:uuid"`
	LicenceIDs dbtypes.UUIDList `gorm:"column:licence_ids;type:text;not null"`
	UnitPrice  decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Total      decimal.Decimal  `gorm:"column:total;type:numeric(12,2);not null"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (CommerceOrderItem) TableName() string { return "commerce_order_items" }

func (i *CommerceOrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	if i.LicenceIDs == nil {
		i.LicenceIDs = dbtypes.UUIDList{}
	}
	return nil
}
