package controllers

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ufsc-france/gestion-backend/api/middleware"
	"github.com/ufsc-france/gestion-backend/api/responses"
	"github.com/ufsc-france/gestion-backend/internal/export"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

// LicenceExport streams the generated file then removes it from disk.
func LicenceExport(svc export.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		format, err := export.ParseFormat(chi.URLParam(r, "format"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params, err := parseLicenceListParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		file, err := svc.Export(ctx, middleware.UserIDFromContext(ctx), params, format)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer func() {
			if err := file.Remove(); err != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "path", file.Path), "export.remove_failed")
			}
		}()

		fh, err := os.Open(file.Path)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open export"))
			return
		}
		defer fh.Close()

		var size int64
		if info, err := fh.Stat(); err == nil {
			size = info.Size()
		}
		if err := responses.WriteFile(w, file.ContentType, file.Name, size, fh); err != nil && logg != nil {
			logg.Error(ctx, "export.stream_failed", err)
		}
	}
}
