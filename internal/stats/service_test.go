package stats

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ufsc-france/gestion-backend/internal/quota"
	"github.com/ufsc-france/gestion-backend/pkg/db/dbtest"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"github.com/ufsc-france/gestion-backend/pkg/redis/redistest"
	"gorm.io/gorm"
)

const season = "2025-2026"

type fixture struct {
	svc   Service
	conn  *gorm.DB
	cache *redistest.Memory
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	quotaSvc, err := quota.NewService(quota.NewRepository(client.DB()))
	require.NoError(t, err)
	cache := redistest.NewMemory()
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(client.DB()),
		Quota:  quotaSvc,
		Cache:  cache,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: client.DB(), cache: cache}
}

func (f fixture) club(t *testing.T, name string, quotaTotal int) *models.Club {
	t.Helper()
	club := &models.Club{Name: name, Region: "occitanie", Status: "actif", QuotaLicences: quotaTotal}
	require.NoError(t, f.conn.Create(club).Error)
	return club
}

func (f fixture) licence(t *testing.T, clubID uuid.UUID, statut string, included bool, paidSeason *string) {
	t.Helper()
	require.NoError(t, f.conn.Create(&models.Licence{
		ClubID:     clubID,
		LastName:   "Durand",
		FirstName:  "Paul",
		Email:      uuid.NewString() + "@example.com",
		Statut:     statut,
		Season:     season,
		IsIncluded: included,
		PaidSeason: paidSeason,
	}).Error)
}

func TestClubStatsCountsAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.club(t, "Club A", 3)
	paid := season

	f.licence(t, club.ID, "valide", true, nil)
	f.licence(t, club.ID, "Validé", true, nil)
	f.licence(t, club.ID, "en_attente", false, &paid)
	f.licence(t, club.ID, "rejected", false, nil)
	f.licence(t, club.ID, "suspendu", false, nil)

	got, err := f.svc.ClubStats(ctx, club.ID, season)
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 5, Valid: 2, Pending: 1, Refused: 1, Other: 1, Included: 2, Paid: 1}, got.Licences)
	assert.Equal(t, quota.Info{Total: 3, Used: 3, Remaining: 0}, got.Quota)
	assert.Equal(t, 1, f.cache.Len())

	f.licence(t, club.ID, "valide", true, nil)
	cached, err := f.svc.ClubStats(ctx, club.ID, season)
	require.NoError(t, err)
	assert.Equal(t, 5, cached.Licences.Total, "cached value served until invalidated")

	f.svc.Invalidate(ctx, club.ID, season)
	fresh, err := f.svc.ClubStats(ctx, club.ID, season)
	require.NoError(t, err)
	assert.Equal(t, 6, fresh.Licences.Total)
}

func TestClubStatsSurvivesCacheOutage(t *testing.T) {
	f := newFixture(t)
	club := f.club(t, "Club B", 1)
	f.licence(t, club.ID, "valide", true, nil)
	f.cache.Fail = errors.New("connection refused")

	got, err := f.svc.ClubStats(context.Background(), club.ID, season)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Licences.Valid)
}

func TestPurgeAndInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.club(t, "Club A", 1)
	b := f.club(t, "Club B", 1)
	_, err := f.svc.ClubStats(ctx, a.ID, season)
	require.NoError(t, err)
	_, err = f.svc.ClubStats(ctx, b.ID, season)
	require.NoError(t, err)
	require.NoError(t, f.cache.Set(ctx, "ufsc:idempotency:commerce:1", "1", 0))

	info, err := f.svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Keys)
	assert.Equal(t, DefaultTTL, info.TTL)

	purged, err := f.svc.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, purged)
	assert.Equal(t, 1, f.cache.Len())
}

func TestOverviewAggregatesClubs(t *testing.T) {
	f := newFixture(t)
	a := f.club(t, "Alpha", 1)
	b := f.club(t, "Beta", 1)
	f.club(t, "Gamma", 0)
	f.licence(t, a.ID, "valide", true, nil)
	f.licence(t, b.ID, "en attente", false, nil)
	f.licence(t, b.ID, "refusé", false, nil)

	overview, err := f.svc.Overview(context.Background(), season)
	require.NoError(t, err)
	require.Len(t, overview.Clubs, 3)
	assert.Equal(t, "Alpha", overview.Clubs[0].Name)
	assert.Equal(t, 1, overview.Clubs[0].Licences.Valid)
	assert.Equal(t, 2, overview.Clubs[1].Licences.Total)
	assert.Equal(t, 0, overview.Clubs[2].Licences.Total)
	assert.Equal(t, Counts{Total: 3, Valid: 1, Pending: 1, Refused: 1, Included: 1}, overview.Totals)
}
