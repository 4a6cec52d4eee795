package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of a business operation.
type AuditLog struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ActorID    *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	Action     enums.AuditAction `gorm:"column:action;not null"`
	EntityType enums.AuditEntity `gorm:"column:entity_type;not null"`
	EntityID   *string           `gorm:"column:entity_id"`
	ClubID     *uuid.UUID        `gorm:"column:club_id;type:uuid"`
	Details    string            `gorm:"column:details;type:text;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string { return "audit_logs" }

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	if a.Details == "" {
		a.Details = "{}"
	}
	return nil
}
