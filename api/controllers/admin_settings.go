package controllers

import (
	"net/http"

	"github.com/ufsc-france/gestion-backend/api/middleware"
	"github.com/ufsc-france/gestion-backend/api/responses"
	"github.com/ufsc-france/gestion-backend/api/validators"
	"github.com/ufsc-france/gestion-backend/internal/settings"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

func AdminSeasonGet(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.GetSeason(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminSeasonUpdate stores season overrides. Mounted behind the admin role.
func AdminSeasonUpdate(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input settings.UpdateSeasonInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpdateSeason(r.Context(), middleware.UserIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
