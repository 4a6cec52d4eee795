package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/internal/licences"
	"github.com/ufsc-france/gestion-backend/internal/quota"
	"github.com/ufsc-france/gestion-backend/internal/settings"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"gorm.io/gorm"
)

type clubResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*models.Club, error)
}

type statsInvalidator interface {
	Invalidate(ctx context.Context, clubID uuid.UUID, season string)
}

// PreviewRow echoes one source line back to the user.
type PreviewRow struct {
	Line          int     `json:"line"`
	Nom           string  `json:"nom"`
	Prenom        string  `json:"prenom"`
	Email         string  `json:"email"`
	DateNaissance *string `json:"date_naissance,omitempty"`
	Sexe          *string `json:"sexe,omitempty"`
}

type Preview struct {
	Headers []string     `json:"headers"`
	Rows    []PreviewRow `json:"rows"`
	Errors  []RowError   `json:"errors"`
	Total   int          `json:"total"`
	Valid   int          `json:"valid"`
	Invalid int          `json:"invalid"`
}

type CommitResult struct {
	Imported        int        `json:"imported"`
	Included        int        `json:"included"`
	Overflow        int        `json:"overflow"`
	PaymentRequired bool       `json:"payment_required"`
	OrderID         *uuid.UUID `json:"order_id,omitempty"`
	Errors          []RowError `json:"errors"`
}

// Service previews and commits CSV imports for the caller's club.
type Service interface {
	Preview(ctx context.Context, r io.Reader) (*Preview, error)
	Commit(ctx context.Context, userID uuid.UUID, r io.Reader) (*CommitResult, error)
}

type ServiceParams struct {
	Licences licences.Repository
	DB       db.TxRunner
	Clubs    clubResolver
	Quota    quota.Service
	Seasons  settings.SeasonSource
	Orders   licences.OverflowOrders
	Audit    audit.Service
	Stats    statsInvalidator
	Logger   *logger.Logger
	MaxRows  int
}

type service struct {
	licences licences.Repository
	db       db.TxRunner
	clubs    clubResolver
	quota    quota.Service
	seasons  settings.SeasonSource
	orders   licences.OverflowOrders
	audit    audit.Service
	stats    statsInvalidator
	logg     *logger.Logger
	maxRows  int
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Licences == nil:
		return nil, fmt.Errorf("licence repository required")
	case params.DB == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Clubs == nil:
		return nil, fmt.Errorf("club resolver required")
	case params.Quota == nil:
		return nil, fmt.Errorf("quota service required")
	case params.Seasons == nil:
		return nil, fmt.Errorf("season source required")
	case params.Orders == nil:
		return nil, fmt.Errorf("overflow orders required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit service required")
	case params.Stats == nil:
		return nil, fmt.Errorf("stats invalidator required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	maxRows := params.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &service{
		licences: params.Licences,
		db:       params.DB,
		clubs:    params.Clubs,
		quota:    params.Quota,
		seasons:  params.Seasons,
		orders:   params.Orders,
		audit:    params.Audit,
		stats:    params.Stats,
		logg:     params.Logger,
		maxRows:  maxRows,
	}, nil
}

func (s *service) Preview(ctx context.Context, r io.Reader) (*Preview, error) {
	parsed, err := Parse(r, s.maxRows)
	if err != nil {
		return nil, err
	}
	out := &Preview{
		Headers: parsed.Headers,
		Rows:    make([]PreviewRow, 0, min(len(parsed.Rows), PreviewLimit)),
		Errors:  parsed.Errors,
		Total:   parsed.Total,
		Valid:   len(parsed.Rows),
		Invalid: parsed.Invalid,
	}
	for _, row := range parsed.Rows {
		if len(out.Rows) == PreviewLimit {
			break
		}
		out.Rows = append(out.Rows, PreviewRow{
			Line:          row.Line,
			Nom:           row.Input.LastName,
			Prenom:        row.Input.FirstName,
			Email:         row.Input.Email,
			DateNaissance: row.Input.BirthDate,
			Sexe:          row.Input.Sex,
		})
	}
	if out.Errors == nil {
		out.Errors = []RowError{}
	}
	return out, nil
}

// Commit creates a licence for every valid row in one transaction. Rows are
// included while the club quota lasts; the rest are collected into a single
// overflow order.
func (s *service) Commit(ctx context.Context, userID uuid.UUID, r io.Reader) (*CommitResult, error) {
	club, err := s.clubs.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	parsed, err := Parse(r, s.maxRows)
	if err != nil {
		return nil, err
	}
	if len(parsed.Rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no valid rows to import").
			WithDetails(map[string]any{"errors": parsed.Errors})
	}
	current, err := s.seasons.CurrentSeason(ctx)
	if err != nil {
		return nil, err
	}
	seasonLabel := current.String()

	built := make([]*models.Licence, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		licence, err := licences.BuildLicence(club.ID, row.Input)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("line %d", row.Line))
		}
		licence.Season = seasonLabel
		built = append(built, licence)
	}

	result := &CommitResult{Errors: parsed.Errors}
	if result.Errors == nil {
		result.Errors = []RowError{}
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		info, err := s.quota.InfoForUpdate(ctx, tx, club.ID, seasonLabel)
		if err != nil {
			return err
		}
		remaining := info.Remaining
		repo := s.licences.WithTx(tx)

		var overflow []uuid.UUID
		for _, licence := range built {
			if remaining > 0 {
				licence.IsIncluded = true
				licence.PaymentStatus = enums.PaymentStatusIncluded
				remaining--
			} else {
				licence.IsIncluded = false
				licence.PaymentStatus = enums.PaymentStatusPending
			}
			if err := repo.Create(ctx, licence); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create licence")
			}
			if licence.IsIncluded {
				result.Included++
			} else {
				overflow = append(overflow, licence.ID)
			}
		}
		result.Imported = len(built)
		result.Overflow = len(overflow)

		details := map[string]any{
			"imported": result.Imported,
			"included": result.Included,
			"overflow": result.Overflow,
			"invalid":  parsed.Invalid,
			"season":   seasonLabel,
		}
		if len(overflow) > 0 {
			order, err := s.orders.CreateOverflowOrder(ctx, tx, club.ID, overflow, seasonLabel)
			if err != nil {
				return err
			}
			result.PaymentRequired = true
			result.OrderID = &order.ID
			details["order_id"] = order.ID.String()
		}

		actor := userID
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    &actor,
			Action:     enums.AuditImportCommitted,
			EntityType: enums.AuditEntityClub,
			EntityID:   club.ID.String(),
			ClubID:     &club.ID,
			Details:    details,
		})
	})
	if err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx, club.ID, seasonLabel)

	logCtx := s.logg.WithClubID(ctx, club.ID.String())
	s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
		"imported": result.Imported,
		"included": result.Included,
		"overflow": result.Overflow,
	}), "licence import committed")
	return result, nil
}
