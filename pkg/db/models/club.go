package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Club is an affiliated sports club. Status is stored raw and normalised on read.
type Club struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name              string     `gorm:"column:name;not null"`
	Region            string     `gorm:"column:region;not null"`
	AffiliationNumber *string    `gorm:"column:affiliation_number"`
	Status            string     `gorm:"column:status;not null;default:'en_attente'"`
	QuotaLicences     int        `gorm:"column:quota_licences;not null;default:0"`
	AffiliationPaidAt *time.Time `gorm:"column:affiliation_paid_at"`
	AffiliationSeason *string    `gorm:"column:affiliation_season"`
	ResponsibleID     *uuid.UUID `gorm:"column:responsible_id;type:uuid"`
	Email             *string    `gorm:"column:email"`
	Phone             *string    `gorm:"column:phone"`
	Address           *string    `gorm:"column:address"`
	City              *string    `gorm:"column:city"`
	PostalCode        *string    `gorm:"column:postal_code"`
	LogoURL           *string    `gorm:"column:logo_url"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Club) TableName() string { return "clubs" }

func (c *Club) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
