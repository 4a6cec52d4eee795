package settings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/db/dbtest"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/season"
)

func newTestService(t *testing.T, now time.Time) (Service, audit.Service) {
	t.Helper()
	client := dbtest.Open(t)
	auditSvc, err := audit.NewService(audit.NewRepository(client.DB()))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:  NewRepository(client.DB()),
		DB:    client,
		Audit: auditSvc,
		Base:  season.NewCalculator(season.WithClock(func() time.Time { return now })),
	})
	require.NoError(t, err)
	return svc, auditSvc
}

func TestGetSeasonDefaultsToClock(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2025, 10, 3, 12, 0, 0, 0, time.UTC))

	got, err := svc.GetSeason(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", got.CurrentSeason)
	assert.Equal(t, "2026-2027", got.NextSeason)
	assert.Equal(t, 30, got.RenewalDay)
	assert.Equal(t, 7, got.RenewalMonth)
	assert.Equal(t, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC), got.RenewalStart)
	assert.False(t, got.RenewalOpen)
}

func TestUpdateSeasonPersistsOverrides(t *testing.T) {
	svc, auditSvc := newTestService(t, time.Date(2025, 10, 3, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	got, err := svc.UpdateSeason(ctx, uuid.New(), UpdateSeasonInput{
		CurrentSeason: "2024-2025",
		RenewalDay:    15,
		RenewalMonth:  6,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-2025", got.CurrentSeason)
	assert.Equal(t, "2025-2026", got.NextSeason, "next derives from the overridden current season")
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), got.RenewalStart)
	assert.True(t, got.RenewalOpen)

	current, err := svc.CurrentSeason(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-2025", current.String())

	page, err := auditSvc.List(ctx, audit.ListFilter{Action: enums.AuditSettingsUpdated})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	cleared, err := svc.UpdateSeason(ctx, uuid.New(), UpdateSeasonInput{})
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", cleared.CurrentSeason)
	assert.Empty(t, cleared.CurrentOverride)
	assert.Equal(t, 30, cleared.RenewalDay)
}

func TestUpdateSeasonRejectsMalformedLabel(t *testing.T) {
	svc, _ := newTestService(t, time.Now())
	_, err := svc.UpdateSeason(context.Background(), uuid.New(), UpdateSeasonInput{NextSeason: "2025/2026"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestBaseCalculatorUsesEnvironmentDefaults(t *testing.T) {
	calc := BaseCalculator(config.SeasonConfig{
		RenewalDay:    15,
		RenewalMonth:  6,
		CurrentSeason: "2030-2031",
		DefaultTZ:     "Europe/Paris",
	})
	assert.Equal(t, "2030-2031", calc.Current().String())
	assert.Equal(t, 15, calc.Overrides().RenewalDay)
	assert.NotNil(t, calc.Location())
}
