package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/season"
	"gorm.io/gorm"
)

const (
	KeyCurrentSeason = "season.current"
	KeyNextSeason    = "season.next"
	KeyRenewalDay    = "season.renewal_day"
	KeyRenewalMonth  = "season.renewal_month"
)

var seasonKeys = []string{KeyCurrentSeason, KeyNextSeason, KeyRenewalDay, KeyRenewalMonth}

// BaseCalculator builds the environment defaults that stored overrides refine.
func BaseCalculator(cfg config.SeasonConfig) season.Calculator {
	return season.NewCalculator(
		season.WithLocation(cfg.Location()),
		season.WithOverrides(season.Overrides{
			Current:      cfg.CurrentSeason,
			Next:         cfg.NextSeason,
			RenewalDay:   cfg.RenewalDay,
			RenewalMonth: cfg.RenewalMonth,
		}),
	)
}

// SeasonSettings is the admin view: stored overrides plus what they resolve to.
type SeasonSettings struct {
	CurrentOverride string    `json:"current_season_override"`
	NextOverride    string    `json:"next_season_override"`
	RenewalDay      int       `json:"renewal_day"`
	RenewalMonth    int       `json:"renewal_month"`
	CurrentSeason   string    `json:"current_season"`
	NextSeason      string    `json:"next_season"`
	RenewalStart    time.Time `json:"renewal_start"`
	RenewalOpen     bool      `json:"renewal_open"`
}

// UpdateSeasonInput replaces every season option. Empty labels clear an override.
type UpdateSeasonInput struct {
	CurrentSeason string `json:"current_season" validate:"omitempty,season"`
	NextSeason    string `json:"next_season" validate:"omitempty,season"`
	RenewalDay    int    `json:"renewal_day" validate:"omitempty,min=1,max=31"`
	RenewalMonth  int    `json:"renewal_month" validate:"omitempty,min=1,max=12"`
}

// SeasonSource is the narrow view other services need.
type SeasonSource interface {
	Calculator(ctx context.Context) (season.Calculator, error)
	CurrentSeason(ctx context.Context) (season.Season, error)
}

type Service interface {
	SeasonSource
	GetSeason(ctx context.Context) (*SeasonSettings, error)
	UpdateSeason(ctx context.Context, actorID uuid.UUID, input UpdateSeasonInput) (*SeasonSettings, error)
}

type ServiceParams struct {
	Repo  Repository
	DB    db.TxRunner
	Audit audit.Service
	// Base carries the clock, timezone and environment defaults.
	Base season.Calculator
}

type service struct {
	repo  Repository
	db    db.TxRunner
	audit audit.Service
	base  season.Calculator
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit service required")
	}
	return &service{repo: params.Repo, db: params.DB, audit: params.Audit, base: params.Base}, nil
}

func (s *service) overrides(ctx context.Context) (season.Overrides, error) {
	o := s.base.Overrides()
	stored, err := s.repo.Get(ctx, seasonKeys...)
	if err != nil {
		return o, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load season settings")
	}
	if v, ok := stored[KeyCurrentSeason]; ok {
		o.Current = v
	}
	if v, ok := stored[KeyNextSeason]; ok {
		o.Next = v
	}
	if v, ok := stored[KeyRenewalDay]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			o.RenewalDay = n
		}
	}
	if v, ok := stored[KeyRenewalMonth]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			o.RenewalMonth = n
		}
	}
	return o, nil
}

func (s *service) Calculator(ctx context.Context) (season.Calculator, error) {
	o, err := s.overrides(ctx)
	if err != nil {
		return s.base, err
	}
	return s.base.With(o), nil
}

func (s *service) CurrentSeason(ctx context.Context) (season.Season, error) {
	calc, err := s.Calculator(ctx)
	if err != nil {
		return season.Season{}, err
	}
	return calc.Current(), nil
}

func (s *service) GetSeason(ctx context.Context) (*SeasonSettings, error) {
	o, err := s.overrides(ctx)
	if err != nil {
		return nil, err
	}
	return describe(s.base.With(o), o), nil
}

func (s *service) UpdateSeason(ctx context.Context, actorID uuid.UUID, input UpdateSeasonInput) (*SeasonSettings, error) {
	current := strings.TrimSpace(input.CurrentSeason)
	next := strings.TrimSpace(input.NextSeason)
	for field, label := range map[string]string{"current_season": current, "next_season": next} {
		if label != "" && !season.Valid(label) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid season label").
				WithDetails(map[string]string{field: "must match YYYY-YYYY"})
		}
	}
	day := input.RenewalDay
	if day == 0 {
		day = season.DefaultRenewalDay
	}
	month := input.RenewalMonth
	if month == 0 {
		month = season.DefaultRenewalMonth
	}

	values := map[string]string{
		KeyRenewalDay:   strconv.Itoa(day),
		KeyRenewalMonth: strconv.Itoa(month),
	}
	var cleared []string
	if current != "" {
		values[KeyCurrentSeason] = current
	} else {
		cleared = append(cleared, KeyCurrentSeason)
	}
	if next != "" {
		values[KeyNextSeason] = next
	} else {
		cleared = append(cleared, KeyNextSeason)
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Upsert(ctx, values); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save season settings")
		}
		if err := repo.Delete(ctx, cleared...); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear season overrides")
		}
		actor := actorID
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    &actor,
			Action:     enums.AuditSettingsUpdated,
			EntityType: enums.AuditEntitySettings,
			EntityID:   "season",
			Details: map[string]any{
				"current_season": current,
				"next_season":    next,
				"renewal_day":    day,
				"renewal_month":  month,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetSeason(ctx)
}

func describe(calc season.Calculator, o season.Overrides) *SeasonSettings {
	return &SeasonSettings{
		CurrentOverride: o.Current,
		NextOverride:    o.Next,
		RenewalDay:      o.RenewalDay,
		RenewalMonth:    o.RenewalMonth,
		CurrentSeason:   calc.Current().String(),
		NextSeason:      calc.Next().String(),
		RenewalStart:    calc.RenewalStart(),
		RenewalOpen:     calc.IsRenewalWindowOpen(),
	}
}
