package controllers

import (
	"net/http"
	"strings"

	"github.com/ufsc-france/gestion-backend/api/middleware"
	"github.com/ufsc-france/gestion-backend/api/responses"
	"github.com/ufsc-france/gestion-backend/api/validators"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

// AdminAuditList pages the audit trail. Rows are not region-tagged, so only
// nationally scoped staff may read it.
func AdminAuditList(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !middleware.ScopeFromContext(r.Context()).IsGlobal() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "national scope required"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clubID, err := validators.ParseOptionalUUID(r, "club_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), audit.ListFilter{
			Action: enums.AuditAction(strings.TrimSpace(r.URL.Query().Get("action"))),
			ClubID: clubID,
			Params: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
