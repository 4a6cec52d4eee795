package clubs

import (
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/quota"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgpagination "github.com/ufsc-france/gestion-backend/pkg/pagination"
	"github.com/ufsc-france/gestion-backend/pkg/status"
)

// ClubDTO is the API representation of a club.
type ClubDTO struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	Region            string      `json:"region"`
	RegionLabel       string      `json:"region_label"`
	AffiliationNumber *string     `json:"affiliation_number,omitempty"`
	Status            string      `json:"status"`
	StatusLabel       string      `json:"status_label"`
	QuotaLicences     int         `json:"quota_licences"`
	AffiliationPaidAt *time.Time  `json:"affiliation_paid_at,omitempty"`
	AffiliationSeason *string     `json:"affiliation_season,omitempty"`
	ResponsibleID     *uuid.UUID  `json:"responsible_id,omitempty"`
	Email             *string     `json:"email,omitempty"`
	Phone             *string     `json:"phone,omitempty"`
	Address           *string     `json:"address,omitempty"`
	City              *string     `json:"city,omitempty"`
	PostalCode        *string     `json:"postal_code,omitempty"`
	LogoURL           *string     `json:"logo_url,omitempty"`
	Quota             *quota.Info `json:"quota,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// UpdateClubInput holds the contact fields a club representative may change.
type UpdateClubInput struct {
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=128"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,max=16"`
}

// CreateClubInput is used by staff to register a club.
type CreateClubInput struct {
	Name              string  `json:"name" validate:"required,max=255"`
	Region            string  `json:"region" validate:"required,region"`
	AffiliationNumber *string `json:"affiliation_number,omitempty" validate:"omitempty,max=64"`
	Email             *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone             *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	City              *string `json:"city,omitempty" validate:"omitempty,max=128"`
}

// CreditQuotaInput is a manual quota credit by staff.
type CreditQuotaInput struct {
	Quantity int    `json:"quantity" validate:"required,min=1,max=1000"`
	Reason   string `json:"reason" validate:"omitempty,max=255"`
}

type ListParams struct {
	Status *enums.ClubStatus
	Search string
	pkgpagination.Params
}

func toDTO(m *models.Club) *ClubDTO {
	dto := &ClubDTO{
		ID:                m.ID,
		Name:              m.Name,
		Region:            m.Region,
		RegionLabel:       enums.DisplayRegion(m.Region),
		AffiliationNumber: m.AffiliationNumber,
		Status:            m.Status,
		StatusLabel:       status.ClubLabelFR(m.Status),
		QuotaLicences:     m.QuotaLicences,
		AffiliationPaidAt: m.AffiliationPaidAt,
		AffiliationSeason: m.AffiliationSeason,
		ResponsibleID:     m.ResponsibleID,
		Email:             m.Email,
		Phone:             m.Phone,
		Address:           m.Address,
		City:              m.City,
		PostalCode:        m.PostalCode,
		LogoURL:           m.LogoURL,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if canonical, ok := status.NormalizeClub(m.Status); ok {
		dto.Status = string(canonical)
	}
	return dto
}
