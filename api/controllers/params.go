package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ufsc-france/gestion-backend/api/validators"
	"github.com/ufsc-france/gestion-backend/internal/licences"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/season"
	"github.com/ufsc-france/gestion-backend/pkg/status"
)

const maxSearchLen = 128

type seasonSource interface {
	CurrentSeason(ctx context.Context) (season.Season, error)
}

func parseLicenceListParams(r *http.Request) (licences.ListParams, error) {
	page, err := validators.ParsePagination(r)
	if err != nil {
		return licences.ListParams{}, err
	}
	q := r.URL.Query()
	params := licences.ListParams{
		Search: validators.SanitizeString(q.Get("search"), maxSearchLen),
		Params: page,
	}
	if raw := strings.TrimSpace(q.Get("statut")); raw != "" {
		st, ok := status.Normalize(raw).Enum()
		if !ok {
			return licences.ListParams{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown statut").WithDetails(map[string]any{"field": "statut"})
		}
		params.Statut = &st
	}
	if raw := strings.TrimSpace(q.Get("season")); raw != "" {
		if !season.Valid(raw) {
			return licences.ListParams{}, pkgerrors.New(pkgerrors.CodeValidation, "season must look like 2025-2026").WithDetails(map[string]any{"field": "season"})
		}
		params.Season = raw
	}
	return params, nil
}

// requestSeason returns the season query parameter or the current season.
func requestSeason(r *http.Request, seasons seasonSource) (string, error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("season")); raw != "" {
		if !season.Valid(raw) {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "season must look like 2025-2026").WithDetails(map[string]any{"field": "season"})
		}
		return raw, nil
	}
	current, err := seasons.CurrentSeason(r.Context())
	if err != nil {
		return "", err
	}
	return current.String(), nil
}
