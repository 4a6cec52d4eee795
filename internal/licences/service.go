package licences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/internal/quota"
	"github.com/ufsc-france/gestion-backend/internal/scope"
	"github.com/ufsc-france/gestion-backend/internal/settings"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	pkgpagination "github.com/ufsc-france/gestion-backend/pkg/pagination"
	"github.com/ufsc-france/gestion-backend/pkg/status"
	"github.com/ufsc-france/gestion-backend/pkg/types"
	"gorm.io/gorm"
)

type clubResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*models.Club, error)
}

// OverflowOrders opens the commerce order that collects payment for licences
// created past the club quota.
type OverflowOrders interface {
	CreateOverflowOrder(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, licenceIDs []uuid.UUID, season string) (*models.CommerceOrder, error)
}

type statsInvalidator interface {
	Invalidate(ctx context.Context, clubID uuid.UUID, season string)
}

// Service exposes licence management for club representatives and staff.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params ListParams) (*types.Page[LicenceDTO], error)
	Get(ctx context.Context, userID, id uuid.UUID) (*LicenceDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateLicenceInput) (*CreateResult, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateLicenceInput) (*LicenceDTO, error)

	AdminList(ctx context.Context, sc scope.Scope, params AdminListParams) (*types.Page[LicenceDTO], error)
	Validate(ctx context.Context, actorID uuid.UUID, sc scope.Scope, id uuid.UUID) (*LicenceDTO, error)
	Refuse(ctx context.Context, actorID uuid.UUID, sc scope.Scope, id uuid.UUID, input RefuseInput) (*LicenceDTO, error)
}

type ServiceParams struct {
	Repo    Repository
	DB      db.TxRunner
	Clubs   clubResolver
	Quota   quota.Service
	Seasons settings.SeasonSource
	Orders  OverflowOrders
	Audit   audit.Service
	Stats   statsInvalidator
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	db      db.TxRunner
	clubs   clubResolver
	quota   quota.Service
	seasons settings.SeasonSource
	orders  OverflowOrders
	audit   audit.Service
	stats   statsInvalidator
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
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
	return &service{
		repo:    params.Repo,
		db:      params.DB,
		clubs:   params.Clubs,
		quota:   params.Quota,
		seasons: params.Seasons,
		orders:  params.Orders,
		audit:   params.Audit,
		stats:   params.Stats,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params ListParams) (*types.Page[LicenceDTO], error) {
	club, err := s.clubs.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, listQuery{clubID: &club.ID}, params)
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*LicenceDTO, error) {
	licence, _, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toDTO(licence), nil
}

// Create registers a licence for the user's club. While quota remains the
// licence is included; past it, the licence waits on an overflow order.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateLicenceInput) (*CreateResult, error) {
	club, err := s.clubs.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	licence, err := BuildLicence(club.ID, input)
	if err != nil {
		return nil, err
	}
	current, err := s.seasons.CurrentSeason(ctx)
	if err != nil {
		return nil, err
	}
	licence.Season = current.String()

	result := &CreateResult{}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		info, err := s.quota.InfoForUpdate(ctx, tx, club.ID, licence.Season)
		if err != nil {
			return err
		}
		charge := info.ShouldCharge()
		licence.IsIncluded = !charge
		licence.PaymentStatus = enums.PaymentStatusIncluded
		if charge {
			licence.PaymentStatus = enums.PaymentStatusPending
		}
		if err := s.repo.WithTx(tx).Create(ctx, licence); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create licence")
		}

		details := map[string]any{"included": licence.IsIncluded, "season": licence.Season}
		if charge {
			order, err := s.orders.CreateOverflowOrder(ctx, tx, club.ID, []uuid.UUID{licence.ID}, licence.Season)
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
			Action:     enums.AuditLicenceCreated,
			EntityType: enums.AuditEntityLicence,
			EntityID:   licence.ID.String(),
			ClubID:     &club.ID,
			Details:    details,
		})
	})
	if err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx, club.ID, licence.Season)

	if result.PaymentRequired {
		logCtx := s.logg.WithClubID(ctx, club.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "licence_id", licence.ID.String()), "licence created past quota, payment required")
	}
	result.Licence = toDTO(licence)
	return result, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateLicenceInput) (*LicenceDTO, error) {
	licence, club, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !status.IsEditable(licence.Statut) {
		return nil, pkgerrors.New(pkgerrors.CodeLocked, "licence locked").
			WithDetails(map[string]string{"statut": status.Canonical(licence.Statut)})
	}

	values := map[string]any{}
	if input.LastName != nil {
		if v := strings.TrimSpace(*input.LastName); v != "" {
			values["last_name"] = v
		} else {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nom cannot be empty")
		}
	}
	if input.FirstName != nil {
		if v := strings.TrimSpace(*input.FirstName); v != "" {
			values["first_name"] = v
		} else {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "prenom cannot be empty")
		}
	}
	if input.Email != nil {
		if !ValidEmail(*input.Email) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
		}
		values["email"] = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if err := applyPerson(values, input.PersonInput); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return toDTO(licence), nil
	}

	fields := make([]string, 0, len(values))
	for k := range values {
		fields = append(fields, k)
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).Transition(ctx, licence.ID, licence.Statut, values)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update licence")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeLocked, "licence locked")
		}
		actor := userID
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    &actor,
			Action:     enums.AuditLicenceUpdated,
			EntityType: enums.AuditEntityLicence,
			EntityID:   licence.ID.String(),
			ClubID:     &club.ID,
			Details:    map[string]any{"fields": fields},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, licence.ID)
}

func (s *service) loadOwned(ctx context.Context, userID, id uuid.UUID) (*models.Licence, *models.Club, error) {
	club, err := s.clubs.Resolve(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	licence, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if licence.ClubID != club.ID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "licence not owned")
	}
	return licence, club, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Licence, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "licence id is required")
	}
	licence, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "licence not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup licence")
	}
	return licence, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*LicenceDTO, error) {
	licence, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload licence")
	}
	return toDTO(licence), nil
}

func (s *service) list(ctx context.Context, q listQuery, params ListParams) (*types.Page[LicenceDTO], error) {
	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	q.cursor = cursor
	q.limit = pkgpagination.LimitWithBuffer(params.Limit)
	q.season = strings.TrimSpace(params.Season)
	q.search = strings.TrimSpace(params.Search)
	if params.Statut != nil {
		q.statuses = statusFilter(*params.Statut)
	}

	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list licences")
	}
	page, next := pkgpagination.Trim(rows, params.Limit, func(l models.Licence) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
	})
	return types.NewPage(toDTOs(page), next), nil
}

// BuildLicence validates the holder fields and returns an unsaved pending
// licence for clubID. Season and quota fields are left to the caller.
func BuildLicence(clubID uuid.UUID, input CreateLicenceInput) (*models.Licence, error) {
	lastName := strings.TrimSpace(input.LastName)
	firstName := strings.TrimSpace(input.FirstName)
	if lastName == "" || firstName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nom and prenom are required")
	}
	if !ValidEmail(input.Email) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	values := map[string]any{}
	if err := applyPerson(values, input.PersonInput); err != nil {
		return nil, err
	}
	licence := &models.Licence{
		ClubID:    clubID,
		LastName:  lastName,
		FirstName: firstName,
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Statut:    string(enums.LicenceStatusPending),
	}
	licence.Phone = stringValue(values, "phone")
	licence.BirthDate = stringValue(values, "birth_date")
	licence.Sex = stringValue(values, "sex")
	licence.Address = stringValue(values, "address")
	licence.City = stringValue(values, "city")
	licence.PostalCode = stringValue(values, "postal_code")
	return licence, nil
}

// applyPerson validates the optional holder fields into column values. An
// empty string clears the column.
func applyPerson(values map[string]any, in PersonInput) error {
	if in.BirthDate != nil {
		if v := strings.TrimSpace(*in.BirthDate); v != "" && !ValidBirthDate(v) {
			return pkgerrors.New(pkgerrors.CodeValidation, "date_naissance must be YYYY-MM-DD")
		}
	}
	if in.Sex != nil {
		if v := strings.TrimSpace(*in.Sex); v != "" {
			sex, ok := ParseSex(v)
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "sexe must be M or F")
			}
			normalized := string(sex)
			in.Sex = &normalized
		}
	}
	setOptional(values, "phone", in.Phone)
	setOptional(values, "birth_date", in.BirthDate)
	setOptional(values, "sex", in.Sex)
	setOptional(values, "address", in.Address)
	setOptional(values, "city", in.City)
	setOptional(values, "postal_code", in.PostalCode)
	return nil
}

func setOptional(values map[string]any, column string, v *string) {
	if v == nil {
		return
	}
	if trimmed := strings.TrimSpace(*v); trimmed != "" {
		values[column] = trimmed
		return
	}
	values[column] = nil
}

func stringValue(values map[string]any, column string) *string {
	v, ok := values[column].(string)
	if !ok {
		return nil
	}
	return &v
}
