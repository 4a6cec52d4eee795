package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/api/middleware"
	"github.com/ufsc-france/gestion-backend/api/responses"
	"github.com/ufsc-france/gestion-backend/internal/stats"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

type clubResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*models.Club, error)
}

// ClubStats returns the caller's club counters for ?season or the current season.
func ClubStats(svc stats.Service, clubs clubResolver, seasons seasonSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		club, err := clubs.Resolve(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		label, err := requestSeason(r, seasons)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ClubStats(r.Context(), club.ID, label)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminStatsOverview aggregates every club. Region-limited staff are refused
// because the overview is not filtered by region.
func AdminStatsOverview(svc stats.Service, seasons seasonSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !middleware.ScopeFromContext(r.Context()).IsGlobal() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "national scope required"))
			return
		}
		label, err := requestSeason(r, seasons)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Overview(r.Context(), label)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
