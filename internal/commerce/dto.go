package commerce

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
)

// OrderStatusChanged is a status transition reported by the commerce platform.
type OrderStatusChanged struct {
	OrderID uuid.UUID
	From    enums.OrderStatus
	To      enums.OrderStatus
}

// WebhookPayload is the body of POST /api/v1/webhooks/commerce.
type WebhookPayload struct {
	DeliveryID string         `json:"delivery_id" validate:"required"`
	OrderID    uuid.UUID      `json:"order_id" validate:"required"`
	From       string         `json:"from"`
	To         string         `json:"to" validate:"required"`
	Order      *OrderSnapshot `json:"order,omitempty"`
}

// OrderSnapshot is the platform's view of an order, used to create or refresh
// the local record before processing.
type OrderSnapshot struct {
	ExternalRef string          `json:"external_ref"`
	ClubID      *uuid.UUID      `json:"club_id,omitempty"`
	Season      string          `json:"season,omitempty"`
	Currency    string          `json:"currency,omitempty"`
	Total       decimal.Decimal `json:"total"`
	Items       []SnapshotItem  `json:"items"`
}

type SnapshotItem struct {
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	ClubID     *uuid.UUID      `json:"club_id,omitempty"`
	LicenceIDs []uuid.UUID     `json:"licence_ids,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Total      decimal.Decimal `json:"total"`
}

// ProcessResult summarises what fulfilling an order changed.
type ProcessResult struct {
	OrderID          uuid.UUID `json:"order_id"`
	Skipped          bool      `json:"skipped"`
	Season           string    `json:"season,omitempty"`
	IncludedCredited int       `json:"included_credited"`
	PaidCredited     int       `json:"paid_credited"`
	LicencesMarked   int64     `json:"licences_marked"`
	Affiliations     int       `json:"affiliations"`
	UnknownItems     int       `json:"unknown_items"`
}

type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	ExternalRef *string           `json:"external_ref,omitempty"`
	ClubID      *uuid.UUID        `json:"club_id,omitempty"`
	Status      enums.OrderStatus `json:"status"`
	Season      *string           `json:"season,omitempty"`
	Total       decimal.Decimal   `json:"total"`
	Currency    string            `json:"currency"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
	Items       []OrderItemDTO    `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
}

type OrderItemDTO struct {
	ID         uuid.UUID         `json:"id"`
	ProductID  string            `json:"product_id"`
	Kind       enums.ProductKind `json:"kind"`
	Quantity   int               `json:"quantity"`
	ClubID     *uuid.UUID        `json:"club_id,omitempty"`
	LicenceIDs []uuid.UUID       `json:"licence_ids"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	Total      decimal.Decimal   `json:"total"`
}

func toOrderDTO(m *models.CommerceOrder, classify func(string) enums.ProductKind) *OrderDTO {
	dto := &OrderDTO{
		ID:          m.ID,
		ExternalRef: m.ExternalRef,
		ClubID:      m.ClubID,
		Status:      m.Status,
		Season:      m.Season,
		Total:       m.Total,
		Currency:    m.Currency,
		ProcessedAt: m.ProcessedAt,
		Items:       make([]OrderItemDTO, len(m.Items)),
		CreatedAt:   m.CreatedAt,
	}
	for i, item := range m.Items {
		dto.Items[i] = OrderItemDTO{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Kind:       classify(item.ProductID),
			Quantity:   item.Quantity,
			ClubID:     item.ClubID,
			LicenceIDs: append([]uuid.UUID{}, item.LicenceIDs...),
			UnitPrice:  item.UnitPrice,
			Total:      item.Total,
		}
	}
	return dto
}
