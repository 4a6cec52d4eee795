package licences

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/internal/scope"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/status"
	"github.com/ufsc-france/gestion-backend/pkg/types"
	"gorm.io/gorm"
)

func (s *service) AdminList(ctx context.Context, sc scope.Scope, params AdminListParams) (*types.Page[LicenceDTO], error) {
	return s.list(ctx, listQuery{clubID: params.ClubID, scope: &sc}, params.ListParams)
}

func (s *service) Validate(ctx context.Context, actorID uuid.UUID, sc scope.Scope, id uuid.UUID) (*LicenceDTO, error) {
	return s.decide(ctx, actorID, sc, id, enums.LicenceStatusValid, "")
}

func (s *service) Refuse(ctx context.Context, actorID uuid.UUID, sc scope.Scope, id uuid.UUID, input RefuseInput) (*LicenceDTO, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refusal reason is required")
	}
	return s.decide(ctx, actorID, sc, id, enums.LicenceStatusRefused, reason)
}

// decide moves a pending licence to a final status. Only pending licences
// can be decided; the stored status is re-checked in the UPDATE itself.
func (s *service) decide(ctx context.Context, actorID uuid.UUID, sc scope.Scope, id uuid.UUID, decision enums.LicenceStatus, reason string) (*LicenceDTO, error) {
	licence, err := s.findInScope(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if status.Normalize(licence.Statut).Kind() != status.KindPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "licence already finalized").
			WithDetails(map[string]string{"statut": status.Canonical(licence.Statut)})
	}

	values := map[string]any{"statut": string(decision)}
	action := enums.AuditLicenceValidated
	details := map[string]any{"from": licence.Statut}
	if decision == enums.LicenceStatusValid {
		values["validated_at"] = s.now().UTC()
		values["refusal_reason"] = nil
	} else {
		action = enums.AuditLicenceRefused
		values["refusal_reason"] = reason
		details["reason"] = reason
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).Transition(ctx, licence.ID, licence.Statut, values)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update licence status")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "licence already finalized")
		}
		actor := actorID
		clubID := licence.ClubID
		return s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    &actor,
			Action:     action,
			EntityType: enums.AuditEntityLicence,
			EntityID:   licence.ID.String(),
			ClubID:     &clubID,
			Details:    details,
		})
	})
	if err != nil {
		return nil, err
	}
	s.stats.Invalidate(ctx, licence.ClubID, licence.Season)
	return s.reload(ctx, licence.ID)
}

func (s *service) findInScope(ctx context.Context, sc scope.Scope, id uuid.UUID) (*models.Licence, error) {
	licence, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	region, err := s.repo.ClubRegion(ctx, licence.ClubID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "club not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup club region")
	}
	if err := sc.AssertInScope(region); err != nil {
		return nil, err
	}
	return licence, nil
}
