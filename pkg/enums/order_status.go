package enums

import (
	"fmt"
	"strings"
)

// OrderStatus mirrors the commerce platform's order lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

var orderStatuses = newSet("order status",
	OrderStatusPending,
	OrderStatusOnHold,
	OrderStatusProcessing,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRefunded,
	OrderStatusFailed,
)

func (o OrderStatus) String() string { return string(o) }

func (o OrderStatus) IsValid() bool { return orderStatuses.has(o) }

// TriggersFulfilment reports whether entering this status unlocks paid items.
func (o OrderStatus) TriggersFulfilment() bool {
	return o == OrderStatusProcessing || o == OrderStatusCompleted
}

// ParseOrderStatus normalises case and the "wc-" prefix some payloads carry.
func ParseOrderStatus(value string) (OrderStatus, error) {
	v, err := orderStatuses.parse(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "wc-"))
	if err != nil {
		return "", fmt.Errorf("invalid order status %q", value)
	}
	return v, nil
}
