package auth

import (
	"context"
	"strings"

	"github.com/ufsc-france/gestion-backend/internal/clubs"
	"github.com/ufsc-france/gestion-backend/internal/users"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/security"
	"gorm.io/gorm"
)

// ProvisionService creates accounts from the operator CLI.
type ProvisionService interface {
	Provision(ctx context.Context, req ProvisionRequest) (*users.UserDTO, error)
}

// ProvisionServiceParams packages the dependencies for account provisioning.
type ProvisionServiceParams struct {
	DB             db.TxRunner
	PasswordConfig config.PasswordConfig
}

type provisionService struct {
	db          db.TxRunner
	passwordCfg config.PasswordConfig
}

func NewProvisionService(params ProvisionServiceParams) (ProvisionService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &provisionService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *provisionService) Provision(ctx context.Context, req ProvisionRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(req.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = email
	}

	var region *string
	if req.Region != nil && strings.TrimSpace(*req.Region) != "" {
		found, ok := enums.LookupRegion(*req.Region)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown region").
				WithDetails(map[string]string{"region": *req.Region})
		}
		region = &found.Slug
	}
	if req.ClubID != nil && req.Role != enums.UserRoleClub {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only club accounts can be responsible for a club")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		taken, err := userRepo.EmailTaken(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			DisplayName:  displayName,
			Role:         req.Role,
			Region:       region,
			AllRegions:   req.AllRegions && req.Role.IsStaff(),
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		if req.ClubID != nil {
			rows, err := clubs.NewRepository(tx).AssignResponsible(ctx, *req.ClubID, user.ID)
			if err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.New(pkgerrors.CodeConflict, "club already has a responsible")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign club responsible")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "club not found")
			}
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
