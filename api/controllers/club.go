package controllers

import (
	"errors"
	"net/http"

	"github.com/ufsc-france/gestion-backend/api/middleware"
	"github.com/ufsc-france/gestion-backend/api/responses"
	"github.com/ufsc-france/gestion-backend/api/validators"
	"github.com/ufsc-france/gestion-backend/internal/clubs"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
)

const (
	logoField = "logo"
	// multipart overhead on top of the logo size limit
	multipartSlack = 64 << 10
)

func ClubGet(svc clubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		club, err := svc.GetMine(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, club)
	}
}

// ClubUpdate edits the contact fields of the caller's club.
func ClubUpdate(svc clubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input clubs.UpdateClubInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		club, err := svc.UpdateMine(r.Context(), middleware.UserIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, club)
	}
}

// ClubUploadLogo accepts a multipart "logo" file. Type and size checks happen
// in the club service on the sniffed content.
func ClubUploadLogo(svc clubs.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = clubs.DefaultMaxLogoBytes
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartSlack)
		file, header, err := r.FormFile(logoField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "logo too large").
					WithDetails(map[string]any{"max_bytes": maxBytes}))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "logo file is required").
				WithDetails(map[string]any{"field": logoField}))
			return
		}
		defer file.Close()

		club, err := svc.UploadLogo(r.Context(), middleware.UserIDFromContext(r.Context()), clubs.LogoUpload{
			Filename: header.Filename,
			Body:     file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, club)
	}
}
