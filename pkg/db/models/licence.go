package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	"gorm.io/gorm"
)

// Licence is a member licence owned by exactly one club.
type Licence struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ClubID               uuid.UUID           `gorm:"column:club_id;type:uuid;not null"`
	LastName             string              `gorm:"column:last_name;not null"`
	FirstName            string              `gorm:"column:first_name;not null"`
	Email                string              `gorm:"column:email;not null"`
	Phone                *string             `gorm:"column:phone"`
	BirthDate            *string             `gorm:"column:birth_date"`
	Sex                  *string             `gorm:"column:sex"`
	Address              *string             `gorm:"column:address"`
	City                 *string             `gorm:"column:city"`
	PostalCode           *string             `gorm:"column:postal_code"`
	Statut               string              `gorm:"column:statut;not null;default:'en_attente'"`
	Season               string              `gorm:"column:season;not null"`
	IsIncluded           bool                `gorm:"column:is_included;not null;default:false"`
	PaidSeason           *string             `gorm:"column:paid_season"`
	PaymentStatus        enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	CertificateURL       *string             `gorm:"column:certificate_url"`
	CertificateExpiresOn *string             `gorm:"column:certificate_expires_on"`
	RefusalReason        *string             `gorm:"column:refusal_reason"`
	ValidatedAt          *time.Time          `gorm:"column:validated_at"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Licence) TableName() string { return "licences" }

func (l *Licence) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
