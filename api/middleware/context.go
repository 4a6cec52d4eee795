package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/scope"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxScope  contextKey = "scope"
)

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.UserRole); ok {
		return v
	}
	return ""
}

// ScopeFromContext returns the staff scope, or a deny-all scope when absent.
func ScopeFromContext(ctx context.Context) scope.Scope {
	if ctx == nil {
		return scope.Deny()
	}
	if v, ok := ctx.Value(ctxScope).(scope.Scope); ok {
		return v
	}
	return scope.Deny()
}

// WithUser injects the authenticated user into the context.
func WithUser(ctx context.Context, userID uuid.UUID, role enums.UserRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}

// WithScope injects the resolved staff scope.
func WithScope(ctx context.Context, sc scope.Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxScope, sc)
}
