package controllers

import (
	"net/http"

	"github.com/ufsc-france/gestion-backend/api/middleware"
	"github.com/ufsc-france/gestion-backend/api/responses"
	"github.com/ufsc-france/gestion-backend/api/validators"
	"github.com/ufsc-france/gestion-backend/internal/licences"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

// AdminLicenceList lists licences across the clubs in scope, optionally one club.
func AdminLicenceList(svc licences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseLicenceListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clubID, err := validators.ParseOptionalUUID(r, "club_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.AdminList(r.Context(), middleware.ScopeFromContext(r.Context()), licences.AdminListParams{
			ClubID:     clubID,
			ListParams: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminLicenceValidate(svc licences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithLicenceID(r.Context(), id.String())
		licence, err := svc.Validate(ctx, middleware.UserIDFromContext(ctx), middleware.ScopeFromContext(ctx), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, licence)
	}
}

func AdminLicenceRefuse(svc licences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input licences.RefuseInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithLicenceID(r.Context(), id.String())
		licence, err := svc.Refuse(ctx, middleware.UserIDFromContext(ctx), middleware.ScopeFromContext(ctx), id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, licence)
	}
}
