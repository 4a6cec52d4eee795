package controllers

import (
	"net/http"
	"strings"

	"github.com/ufsc-france/gestion-backend/api/middleware"
	"github.com/ufsc-france/gestion-backend/api/responses"
	"github.com/ufsc-france/gestion-backend/api/validators"
	"github.com/ufsc-france/gestion-backend/internal/clubs"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"github.com/ufsc-france/gestion-backend/pkg/status"
)

// AdminClubList lists clubs inside the caller's region scope.
func AdminClubList(svc clubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := clubs.ListParams{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), maxSearchLen),
			Params: page,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("statut")); raw != "" {
			st, ok := status.NormalizeClub(raw)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown club statut").
					WithDetails(map[string]any{"field": "statut"}))
				return
			}
			params.Status = &st
		}

		result, err := svc.List(r.Context(), middleware.ScopeFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminClubGet(svc clubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		club, err := svc.Get(r.Context(), middleware.ScopeFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, club)
	}
}

func AdminClubCreate(svc clubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input clubs.CreateClubInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		club, err := svc.Create(ctx, middleware.UserIDFromContext(ctx), middleware.ScopeFromContext(ctx), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, club)
	}
}

// AdminClubCreditQuota adds licences to a club's included quota.
func AdminClubCreditQuota(svc clubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input clubs.CreditQuotaInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		club, err := svc.CreditQuota(ctx, middleware.UserIDFromContext(ctx), middleware.ScopeFromContext(ctx), id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, club)
	}
}
