package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"gorm.io/gorm"
)

// Info summarises a club's quota for a season.
type Info struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// ShouldCharge reports whether the next licence falls outside the quota.
func (i Info) ShouldCharge() bool {
	return i.Used >= i.Total
}

// Service is the quota ledger. Credits only ever increment the club counter;
// consumption is derived from the licences themselves.
type Service interface {
	Info(ctx context.Context, clubID uuid.UUID, season string) (*Info, error)
	InfoWithTx(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, season string) (*Info, error)
	InfoForUpdate(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, season string) (*Info, error)
	ShouldCharge(ctx context.Context, clubID uuid.UUID, season string) (bool, error)
	AddIncluded(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, qty int, season string) error
	AddPaid(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, qty int, season string) error
}

type service struct {
	repo Repository
}

// NewService wires a quota ledger over the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quota repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Info(ctx context.Context, clubID uuid.UUID, season string) (*Info, error) {
	return s.InfoWithTx(ctx, nil, clubID, season)
}

func (s *service) InfoWithTx(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, season string) (*Info, error) {
	return s.info(ctx, tx, clubID, season, false)
}

// InfoForUpdate reads the quota while holding the club row lock, so callers
// deciding included vs paid inside tx do not race each other.
func (s *service) InfoForUpdate(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, season string) (*Info, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	return s.info(ctx, tx, clubID, season, true)
}

func (s *service) info(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, season string, lock bool) (*Info, error) {
	if clubID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "club id is required")
	}
	repo := s.repo.WithTx(tx)

	load := repo.ClubQuota
	if lock {
		load = repo.ClubQuotaForUpdate
	}
	total, err := load(ctx, clubID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "club not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load club quota")
	}
	used, err := repo.CountUsed(ctx, clubID, season)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count used licences")
	}

	info := &Info{Total: total, Used: int(used)}
	if remaining := info.Total - info.Used; remaining > 0 {
		info.Remaining = remaining
	}
	return info, nil
}

func (s *service) ShouldCharge(ctx context.Context, clubID uuid.UUID, season string) (bool, error) {
	info, err := s.Info(ctx, clubID, season)
	if err != nil {
		return false, err
	}
	return info.ShouldCharge(), nil
}

// AddIncluded credits licences granted by an affiliation pack.
func (s *service) AddIncluded(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, qty int, season string) error {
	return s.credit(ctx, tx, clubID, qty)
}

// AddPaid credits individually purchased licences. The season is accepted for
// symmetry with AddIncluded; quota is a single running counter per club.
func (s *service) AddPaid(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, qty int, season string) error {
	return s.credit(ctx, tx, clubID, qty)
}

func (s *service) credit(ctx context.Context, tx *gorm.DB, clubID uuid.UUID, qty int) error {
	if clubID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "club id is required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	rows, err := s.repo.WithTx(tx).Increment(ctx, clubID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment club quota")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "club not found")
	}
	return nil
}
