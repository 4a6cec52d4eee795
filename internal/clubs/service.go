package clubs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
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
	"github.com/ufsc-france/gestion-backend/pkg/metrics"
	pkgpagination "github.com/ufsc-france/gestion-backend/pkg/pagination"
	"github.com/ufsc-france/gestion-backend/pkg/status"
	"github.com/ufsc-france/gestion-backend/pkg/storage"
	"github.com/ufsc-france/gestion-backend/pkg/types"
	"gorm.io/gorm"
)

const DefaultMaxLogoBytes = 2 << 20

var allowedLogoTypes = []string{"image/png", "image/jpeg", "image/webp"}

// LogoUpload is a club logo received from a multipart form.
type LogoUpload struct {
	Filename string
	Body     io.Reader
}

type statsInvalidator interface {
	Invalidate(ctx context.Context, clubID uuid.UUID, season string)
}

// Service covers the club representative's own club and the staff back office.
type Service interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*models.Club, error)
	GetMine(ctx context.Context, userID uuid.UUID) (*ClubDTO, error)
	UpdateMine(ctx context.Context, userID uuid.UUID, input UpdateClubInput) (*ClubDTO, error)
	UploadLogo(ctx context.Context, userID uuid.UUID, upload LogoUpload) (*ClubDTO, error)

	List(ctx context.Context, sc scope.Scope, params ListParams) (*types.Page[ClubDTO], error)
	Get(ctx context.Context, sc scope.Scope, id uuid.UUID) (*ClubDTO, error)
	Create(ctx context.Context, actorID uuid.UUID, sc scope.Scope, input CreateClubInput) (*ClubDTO, error)
	CreditQuota(ctx context.Context, actorID uuid.UUID, sc scope.Scope, id uuid.UUID, input CreditQuotaInput) (*ClubDTO, error)
}

type ServiceParams struct {
	Repo         Repository
	DB           db.TxRunner
	Quota        quota.Service
	Seasons      settings.SeasonSource
	Audit        audit.Service
	Stats        statsInvalidator
	Storage      storage.ObjectStore
	Metrics      *metrics.CommerceMetrics
	Logger       *logger.Logger
	MaxLogoBytes int64
}

type service struct {
	repo         Repository
	db           db.TxRunner
	quota        quota.Service
	seasons      settings.SeasonSource
	audit        audit.Service
	stats        statsInvalidator
	storage      storage.ObjectStore
	metrics      *metrics.CommerceMetrics
	logg         *logger.Logger
	maxLogoBytes int64
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("clubs repository required")
	case params.DB == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Quota == nil:
		return nil, fmt.Errorf("quota service required")
	case params.Seasons == nil:
		return nil, fmt.Errorf("season source required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit service required")
	case params.Stats == nil:
		return nil, fmt.Errorf("stats invalidator required")
	case params.Storage == nil:
		return nil, fmt.Errorf("object storage required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	maxLogo := params.MaxLogoBytes
	if maxLogo <= 0 {
		maxLogo = DefaultMaxLogoBytes
	}
	return &service{
		repo:         params.Repo,
		db:           params.DB,
		quota:        params.Quota,
		seasons:      params.Seasons,
		audit:        params.Audit,
		stats:        params.Stats,
		storage:      params.Storage,
		metrics:      params.Metrics,
		logg:         params.Logger,
		maxLogoBytes: maxLogo,
	}, nil
}

// Resolve finds the club the user is responsible for.
func (s *service) Resolve(ctx context.Context, userID uuid.UUID) (*models.Club, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not logged in")
	}
	club, err := s.repo.FindByResponsible(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no club")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve club")
	}
	return club, nil
}

func (s *service) GetMine(ctx context.Context, userID uuid.UUID) (*ClubDTO, error) {
	club, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withQuota(ctx, club)
}

func (s *service) UpdateMine(ctx context.Context, userID uuid.UUID, input UpdateClubInput) (*ClubDTO, error) {
	club, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	values := map[string]any{}
	setTrimmed(values, "email", input.Email)
	setTrimmed(values, "phone", input.Phone)
	setTrimmed(values, "address", input.Address)
	setTrimmed(values, "city", input.City)
	setTrimmed(values, "postal_code", input.PostalCode)
	if len(values) == 0 {
		return s.withQuota(ctx, club)
	}

	if err := s.updateAndAudit(ctx, userID, club.ID, values); err != nil {
		return nil, err
	}
	return s.reload(ctx, club.ID)
}

func (s *service) UploadLogo(ctx context.Context, userID uuid.UUID, upload LogoUpload) (*ClubDTO, error) {
	club, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upload.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logo file is required")
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, s.maxLogoBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read logo")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logo file is empty")
	}
	if int64(len(data)) > s.maxLogoBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logo exceeds maximum size").
			WithDetails(map[string]any{"max_bytes": s.maxLogoBytes})
	}
	detected := mimetype.Detect(data)
	if !detected.Is(allowedLogoTypes[0]) && !detected.Is(allowedLogoTypes[1]) && !detected.Is(allowedLogoTypes[2]) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported logo type").
			WithDetails(map[string]any{"allowed": allowedLogoTypes, "detected": detected.String()})
	}

	key := fmt.Sprintf("logos/%s%s", club.ID, detected.Extension())
	url, err := s.storage.Put(ctx, key, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store logo")
	}
	if err := s.updateAndAudit(ctx, userID, club.ID, map[string]any{"logo_url": url}); err != nil {
		return nil, err
	}
	return s.reload(ctx, club.ID)
}

func (s *service) List(ctx context.Context, sc scope.Scope, params ListParams) (*types.Page[ClubDTO], error) {
	cursor, err := pkgpagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	q := listQuery{
		scope:  sc,
		search: strings.TrimSpace(params.Search),
		limit:  pkgpagination.LimitWithBuffer(params.Limit),
		cursor: cursor,
	}
	if params.Status != nil {
		q.statuses = status.ClubAliasesFor(*params.Status)
	}
	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clubs")
	}
	page, next := pkgpagination.Trim(rows, params.Limit, func(c models.Club) pkgpagination.Cursor {
		return pkgpagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	items := make([]ClubDTO, len(page))
	for i := range page {
		items[i] = *toDTO(&page[i])
	}
	return types.NewPage(items, next), nil
}

func (s *service) Get(ctx context.Context, sc scope.Scope, id uuid.UUID) (*ClubDTO, error) {
	club, err := s.findInScope(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	return s.withQuota(ctx, club)
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, sc scope.Scope, input CreateClubInput) (*ClubDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "club name is required")
	}
	region, ok := enums.LookupRegion(input.Region)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown region").
			WithDetails(map[string]string{"region": input.Region})
	}
	if err := sc.AssertInScope(region.Slug); err != nil {
		return nil, err
	}

	club := &models.Club{
		Name:              name,
		Region:            region.Slug,
		AffiliationNumber: trimmedPtr(input.AffiliationNumber),
		Status:            string(enums.ClubStatusInCreation),
		Email:             trimmedPtr(input.Email),
		Phone:             trimmedPtr(input.Phone),
		City:              trimmedPtr(input.City),
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, club); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create club")
		}
		actor := actorID
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    &actor,
			Action:     enums.AuditClubUpdated,
			EntityType: enums.AuditEntityClub,
			EntityID:   club.ID.String(),
			ClubID:     &club.ID,
			Details:    map[string]any{"created": true, "name": club.Name, "region": club.Region},
		})
	})
	if err != nil {
		return nil, err
	}
	return toDTO(club), nil
}

// CreditQuota adds licences to a club's quota outside of any order.
func (s *service) CreditQuota(ctx context.Context, actorID uuid.UUID, sc scope.Scope, id uuid.UUID, input CreditQuotaInput) (*ClubDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	club, err := s.findInScope(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	current, err := s.seasons.CurrentSeason(ctx)
	if err != nil {
		return nil, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.quota.AddPaid(ctx, tx, club.ID, input.Quantity, current.String()); err != nil {
			return err
		}
		actor := actorID
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    &actor,
			Action:     enums.AuditQuotaCredited,
			EntityType: enums.AuditEntityClub,
			EntityID:   club.ID.String(),
			ClubID:     &club.ID,
			Details: map[string]any{
				"quantity": input.Quantity,
				"reason":   strings.TrimSpace(input.Reason),
				"season":   current.String(),
				"source":   "manual",
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AddQuotaCredit(metrics.QuotaCreditManual, input.Quantity)
	s.stats.Invalidate(ctx, club.ID, current.String())

	logCtx := s.logg.WithClubID(s.logg.WithUserID(ctx, actorID.String()), club.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "quantity", input.Quantity), "quota credited manually")
	return s.reload(ctx, club.ID)
}

func (s *service) findInScope(ctx context.Context, sc scope.Scope, id uuid.UUID) (*models.Club, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "club id is required")
	}
	club, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "club not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load club")
	}
	if err := sc.AssertInScope(club.Region); err != nil {
		return nil, err
	}
	return club, nil
}

func (s *service) updateAndAudit(ctx context.Context, actorID, clubID uuid.UUID, values map[string]any) error {
	fields := make([]string, 0, len(values))
	for k := range values {
		fields = append(fields, k)
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).UpdateColumns(ctx, clubID, values)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update club")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "club not found")
		}
		actor := actorID
		id := clubID
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    &actor,
			Action:     enums.AuditClubUpdated,
			EntityType: enums.AuditEntityClub,
			EntityID:   clubID.String(),
			ClubID:     &id,
			Details:    map[string]any{"fields": fields},
		})
	})
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*ClubDTO, error) {
	club, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload club")
	}
	return s.withQuota(ctx, club)
}

func (s *service) withQuota(ctx context.Context, club *models.Club) (*ClubDTO, error) {
	dto := toDTO(club)
	current, err := s.seasons.CurrentSeason(ctx)
	if err != nil {
		return nil, err
	}
	info, err := s.quota.Info(ctx, club.ID, current.String())
	if err != nil {
		return nil, err
	}
	dto.Quota = info
	return dto, nil
}

func setTrimmed(values map[string]any, column string, v *string) {
	if v == nil {
		return
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		values[column] = nil
		return
	}
	values[column] = trimmed
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
