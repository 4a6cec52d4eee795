package controllers

import (
	"net/http"

	"github.com/ufsc-france/gestion-backend/api/middleware"
	"github.com/ufsc-france/gestion-backend/api/responses"
	"github.com/ufsc-france/gestion-backend/api/validators"
	"github.com/ufsc-france/gestion-backend/internal/commerce"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

func AdminOrderGet(bridge commerce.Bridge, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := bridge.GetOrder(r.Context(), middleware.ScopeFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
