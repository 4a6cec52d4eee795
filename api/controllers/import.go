package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/ufsc-france/gestion-backend/api/middleware"
	"github.com/ufsc-france/gestion-backend/api/responses"
	"github.com/ufsc-france/gestion-backend/internal/importer"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

const (
	importField = "file"
	// DefaultImportMaxBytes caps an uploaded CSV.
	DefaultImportMaxBytes = 5 << 20
)

// ImportPreview parses an uploaded CSV and returns the first rows with their errors.
func ImportPreview(svc importer.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, closeFn, err := importUpload(w, r, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeFn()

		preview, err := svc.Preview(r.Context(), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}

// ImportCommit creates the valid rows of an uploaded CSV for the caller's club.
func ImportCommit(svc importer.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, closeFn, err := importUpload(w, r, maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeFn()

		result, err := svc.Commit(r.Context(), middleware.UserIDFromContext(r.Context()), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func importUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (io.Reader, func(), error) {
	if maxBytes <= 0 {
		maxBytes = DefaultImportMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	file, _, err := r.FormFile(importField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "file too large").WithDetails(map[string]any{"max_bytes": maxBytes})
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "csv file is required").WithDetails(map[string]any{"field": importField})
	}
	return file, func() { file.Close() }, nil
}
