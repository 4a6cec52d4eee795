package licences

import (
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgpagination "github.com/ufsc-france/gestion-backend/pkg/pagination"
	"github.com/ufsc-france/gestion-backend/pkg/status"
)

// LicenceDTO is the API representation of a licence. Person fields keep the
// French keys used by the import and export files.
type LicenceDTO struct {
	ID                   uuid.UUID           `json:"id"`
	ClubID               uuid.UUID           `json:"club_id"`
	LastName             string              `json:"nom"`
	FirstName            string              `json:"prenom"`
	Email                string              `json:"email"`
	Phone                *string             `json:"telephone,omitempty"`
	BirthDate            *string             `json:"date_naissance,omitempty"`
	Sex                  *string             `json:"sexe,omitempty"`
	Address              *string             `json:"adresse,omitempty"`
	City                 *string             `json:"ville,omitempty"`
	PostalCode           *string             `json:"code_postal,omitempty"`
	Statut               string              `json:"statut"`
	StatutLabel          string              `json:"statut_label"`
	Editable             bool                `json:"editable"`
	Season               string              `json:"season"`
	IsIncluded           bool                `json:"is_included"`
	PaidSeason           *string             `json:"paid_season,omitempty"`
	PaymentStatus        enums.PaymentStatus `json:"payment_status"`
	PaymentDue           bool                `json:"payment_due"`
	CertificateURL       *string             `json:"certificate_url,omitempty"`
	CertificateExpiresOn *string             `json:"certificate_expires_on,omitempty"`
	RefusalReason        *string             `json:"refusal_reason,omitempty"`
	ValidatedAt          *time.Time          `json:"validated_at,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// PersonInput carries the holder fields shared by create and update.
type PersonInput struct {
	Phone      *string `json:"telephone,omitempty" validate:"omitempty,max=32"`
	BirthDate  *string `json:"date_naissance,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Sex        *string `json:"sexe,omitempty" validate:"omitempty,oneof=M F m f"`
	Address    *string `json:"adresse,omitempty" validate:"omitempty,max=255"`
	City       *string `json:"ville,omitempty" validate:"omitempty,max=128"`
	PostalCode *string `json:"code_postal,omitempty" validate:"omitempty,max=16"`
}

type CreateLicenceInput struct {
	LastName  string `json:"nom" validate:"required,max=128"`
	FirstName string `json:"prenom" validate:"required,max=128"`
	Email     string `json:"email" validate:"required,email"`
	PersonInput
}

type UpdateLicenceInput struct {
	LastName  *string `json:"nom,omitempty" validate:"omitempty,max=128"`
	FirstName *string `json:"prenom,omitempty" validate:"omitempty,max=128"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	PersonInput
}

type RefuseInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// CreateResult tells the caller whether the new licence needs a payment.
type CreateResult struct {
	Licence         *LicenceDTO `json:"licence"`
	PaymentRequired bool        `json:"payment_required"`
	OrderID         *uuid.UUID  `json:"order_id,omitempty"`
}

type ListParams struct {
	Statut *enums.LicenceStatus
	Season string
	Search string
	pkgpagination.Params
}

type AdminListParams struct {
	ClubID *uuid.UUID
	ListParams
}

func toDTO(m *models.Licence) *LicenceDTO {
	st := status.Normalize(m.Statut)
	return &LicenceDTO{
		ID:                   m.ID,
		ClubID:               m.ClubID,
		LastName:             m.LastName,
		FirstName:            m.FirstName,
		Email:                m.Email,
		Phone:                m.Phone,
		BirthDate:            m.BirthDate,
		Sex:                  m.Sex,
		Address:              m.Address,
		City:                 m.City,
		PostalCode:           m.PostalCode,
		Statut:               st.Canonical(),
		StatutLabel:          st.LabelFR(),
		Editable:             st.IsEditable(),
		Season:               m.Season,
		IsIncluded:           m.IsIncluded,
		PaidSeason:           m.PaidSeason,
		PaymentStatus:        m.PaymentStatus,
		PaymentDue:           !m.PaymentStatus.Settled(),
		CertificateURL:       m.CertificateURL,
		CertificateExpiresOn: m.CertificateExpiresOn,
		RefusalReason:        m.RefusalReason,
		ValidatedAt:          m.ValidatedAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func toDTOs(rows []models.Licence) []LicenceDTO {
	out := make([]LicenceDTO, len(rows))
	for i := range rows {
		out[i] = *toDTO(&rows[i])
	}
	return out
}
