package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"gorm.io/gorm"
)

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Resolver loads the acting user and derives their scope.
type Resolver struct {
	users userLoader
}

func NewResolver(users userLoader) (*Resolver, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &Resolver{users: users}, nil
}

func (r *Resolver) ForUser(ctx context.Context, userID uuid.UUID) (Scope, error) {
	if userID == uuid.Nil {
		return Deny(), pkgerrors.New(pkgerrors.CodeUnauthorized, "not logged in")
	}
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Deny(), pkgerrors.New(pkgerrors.CodeUnauthorized, "not logged in")
		}
		return Deny(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return Resolve(user), nil
}
