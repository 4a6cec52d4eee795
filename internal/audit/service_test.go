package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ufsc-france/gestion-backend/pkg/db/dbtest"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	pkgpagination "github.com/ufsc-france/gestion-backend/pkg/pagination"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	return svc.(*service), client.DB()
}

func TestRecordAndList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor := uuid.New()
	club := uuid.New()

	require.NoError(t, svc.Record(ctx, nil, Entry{
		ActorID:    &actor,
		Action:     enums.AuditLicenceCreated,
		EntityType: enums.AuditEntityLicence,
		EntityID:   "lic-1",
		ClubID:     &club,
		Details:    map[string]any{"included": true},
	}))
	require.NoError(t, svc.Record(ctx, nil, Entry{
		Action:     enums.AuditOrderProcessed,
		EntityType: enums.AuditEntityOrder,
	}))

	page, err := svc.List(ctx, ListFilter{Action: enums.AuditLicenceCreated})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	rec := page.Items[0]
	assert.Equal(t, enums.AuditLicenceCreated, rec.Action)
	require.NotNil(t, rec.EntityID)
	assert.Equal(t, "lic-1", *rec.EntityID)

	var details map[string]any
	require.NoError(t, json.Unmarshal(rec.Details, &details))
	assert.Equal(t, true, details["included"])

	all, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.JSONEq(t, "{}", string(all.Items[0].Details))
}

func TestListPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	base := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.Create(&models.AuditLog{
			Action:     enums.AuditLicenceUpdated,
			EntityType: enums.AuditEntityLicence,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	first, err := svc.List(ctx, ListFilter{Params: pkgpagination.Params{Limit: 3}})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Items[0].CreatedAt.After(first.Items[2].CreatedAt))

	second, err := svc.List(ctx, ListFilter{Params: pkgpagination.Params{Limit: 3, Cursor: first.NextCursor}})
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.Empty(t, second.NextCursor)
}

func TestListRejectsBadCursor(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), ListFilter{Params: pkgpagination.Params{Cursor: "%%%"}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestStatsCountsPerAction(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, action := range []enums.AuditAction{enums.AuditLicenceCreated, enums.AuditLicenceCreated, enums.AuditQuotaCredited} {
		require.NoError(t, svc.Record(ctx, nil, Entry{Action: action, EntityType: enums.AuditEntityClub}))
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, []ActionCount{
		{Action: enums.AuditLicenceCreated, Count: 2},
		{Action: enums.AuditQuotaCredited, Count: 1},
	}, stats.ByAction)
}

func TestCleanupDeletesOldRows(t *testing.T) {
	svc, conn := newTestService(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, conn.Create(&models.AuditLog{
		Action: enums.AuditClubUpdated, EntityType: enums.AuditEntityClub, CreatedAt: now.AddDate(-2, 0, 0),
	}).Error)
	require.NoError(t, conn.Create(&models.AuditLog{
		Action: enums.AuditClubUpdated, EntityType: enums.AuditEntityClub, CreatedAt: now.AddDate(0, 0, -1),
	}).Error)

	deleted, err := svc.Cleanup(context.Background(), 365*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = svc.Cleanup(context.Background(), 0)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRecordValidation(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Record(context.Background(), nil, Entry{EntityType: enums.AuditEntityClub})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
