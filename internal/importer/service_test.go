package importer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/internal/clubs"
	"github.com/ufsc-france/gestion-backend/internal/commerce"
	"github.com/ufsc-france/gestion-backend/internal/licences"
	"github.com/ufsc-france/gestion-backend/internal/quota"
	"github.com/ufsc-france/gestion-backend/internal/settings"
	"github.com/ufsc-france/gestion-backend/pkg/config"
	"github.com/ufsc-france/gestion-backend/pkg/db/dbtest"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"github.com/ufsc-france/gestion-backend/pkg/season"
	"gorm.io/gorm"
)

const testSeason = "2025-2026"

type stubResolver struct {
	club *models.Club
}

func (s *stubResolver) Resolve(context.Context, uuid.UUID) (*models.Club, error) {
	if s.club == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no club")
	}
	return s.club, nil
}

type stubStats struct{ calls int }

func (s *stubStats) Invalidate(context.Context, uuid.UUID, string) { s.calls++ }

type fixture struct {
	svc      Service
	conn     *gorm.DB
	resolver *stubResolver
	stats    *stubStats
	quota    quota.Service
	audit    audit.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	auditSvc, err := audit.NewService(audit.NewRepository(conn))
	require.NoError(t, err)
	quotaSvc, err := quota.NewService(quota.NewRepository(conn))
	require.NoError(t, err)
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	seasons, err := settings.NewService(settings.ServiceParams{
		Repo:  settings.NewRepository(conn),
		DB:    client,
		Audit: auditSvc,
		Base:  season.NewCalculator(season.WithClock(func() time.Time { return now })),
	})
	require.NoError(t, err)

	f := &fixture{
		conn:     conn,
		resolver: &stubResolver{},
		stats:    &stubStats{},
		quota:    quotaSvc,
		audit:    auditSvc,
	}
	bridge, err := commerce.NewBridge(commerce.BridgeParams{
		Repo:    commerce.NewRepository(conn),
		Clubs:   clubs.NewRepository(conn),
		DB:      client,
		Quota:   quotaSvc,
		Seasons: seasons,
		Audit:   auditSvc,
		Stats:   f.stats,
		Logger:  logg,
		Commerce: config.CommerceConfig{
			AffiliationProductIDs:   []string{"pack-affiliation"},
			LicenceProductIDs:       []string{"licence-unit"},
			IncludedLicencesPerPack: 10,
			LicenceUnitPrice:        "35",
			Currency:                "EUR",
		},
	})
	require.NoError(t, err)

	f.svc, err = NewService(ServiceParams{
		Licences: licences.NewRepository(conn),
		DB:       client,
		Clubs:    f.resolver,
		Quota:    quotaSvc,
		Seasons:  seasons,
		Orders:   bridge,
		Audit:    auditSvc,
		Stats:    f.stats,
		Logger:   logg,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) seedClub(t *testing.T, quotaTotal, included int) *models.Club {
	t.Helper()
	club := &models.Club{Name: "AS Brest", Region: "bretagne", Status: "actif", QuotaLicences: quotaTotal}
	require.NoError(t, f.conn.Create(club).Error)
	for i := 0; i < included; i++ {
		require.NoError(t, f.conn.Create(&models.Licence{
			ClubID:        club.ID,
			LastName:      "Existant",
			FirstName:     fmt.Sprintf("N%d", i),
			Email:         fmt.Sprintf("existing%d@example.com", i),
			Statut:        "valide",
			Season:        testSeason,
			IsIncluded:    true,
			PaymentStatus: enums.PaymentStatusIncluded,
		}).Error)
	}
	f.resolver.club = club
	return club
}

const threeRows = "nom,prenom,email,date_naissance,sexe\n" +
	"Durand,Lea,lea@example.com,2001-04-12,F\n" +
	"Petit,Marc,marc@example.com,,m\n" +
	"Roux,Ines,ines@example.com,1999-12-31,\n"

func TestCommitSplitsIncludedAndOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.seedClub(t, 4, 2)

	res, err := f.svc.Commit(ctx, uuid.New(), strings.NewReader(threeRows))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 2, res.Included)
	assert.Equal(t, 1, res.Overflow)
	assert.True(t, res.PaymentRequired)
	require.NotNil(t, res.OrderID)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, f.stats.calls)

	var overflow []models.Licence
	require.NoError(t, f.conn.Where("club_id = ? AND is_included = ?", club.ID, false).Find(&overflow).Error)
	require.Len(t, overflow, 1)
	assert.Equal(t, enums.PaymentStatusPending, overflow[0].PaymentStatus)

	order, err := commerce.NewRepository(f.conn).FindOrder(ctx, *res.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.Equal(t, []uuid.UUID{overflow[0].ID}, []uuid.UUID(order.Items[0].LicenceIDs))
	assert.Equal(t, "35", order.Total.String())

	page, err := f.audit.List(ctx, audit.ListFilter{Action: enums.AuditImportCommitted})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestCommitWithinQuotaCreatesNoOrder(t *testing.T) {
	f := newFixture(t)
	f.seedClub(t, 10, 0)

	res, err := f.svc.Commit(context.Background(), uuid.New(), strings.NewReader(threeRows))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Included)
	assert.False(t, res.PaymentRequired)
	assert.Nil(t, res.OrderID)
}

// Two included licences already use a quota of two, so the charge rule
// (used >= total) holds before the first row and nothing is free. The
// two-free-one-paid split needs two remaining slots; see
// TestCommitSplitsIncludedAndOverflow.
func TestCommitFullQuotaChargesEveryImportedRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.seedClub(t, 2, 2)

	res, err := f.svc.Commit(ctx, uuid.New(), strings.NewReader(threeRows))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Zero(t, res.Included)
	assert.Equal(t, 3, res.Overflow)
	assert.True(t, res.PaymentRequired)
	require.NotNil(t, res.OrderID)

	order, err := commerce.NewRepository(f.conn).FindOrder(ctx, *res.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)

	var stored models.Club
	require.NoError(t, f.conn.First(&stored, "id = ?", club.ID).Error)
	assert.Equal(t, 2, stored.QuotaLicences)
}

func TestCommitSkipsInvalidRowsAndReportsThem(t *testing.T) {
	f := newFixture(t)
	club := f.seedClub(t, 10, 0)
	body := "nom,prenom,email\n" +
		"Durand,Lea,lea@example.com\n" +
		"Petit,,not-an-email\n"

	res, err := f.svc.Commit(context.Background(), uuid.New(), strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 3, res.Errors[0].Line)

	var count int64
	require.NoError(t, f.conn.Model(&models.Licence{}).Where("club_id = ?", club.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCommitWithoutValidRows(t *testing.T) {
	f := newFixture(t)
	f.seedClub(t, 10, 0)

	_, err := f.svc.Commit(context.Background(), uuid.New(), strings.NewReader("nom,prenom,email\n,,\nx,,\n"))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCommitWithoutClub(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Commit(context.Background(), uuid.New(), strings.NewReader(threeRows))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestPreviewCapsRows(t *testing.T) {
	f := newFixture(t)
	var b strings.Builder
	b.WriteString("Nom,Prénom,E-mail\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "Nom%d,Prenom%d,user%d@example.com\n", i, i, i)
	}
	b.WriteString("Bad,Row,nope\n")

	preview, err := f.svc.Preview(context.Background(), strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Len(t, preview.Rows, PreviewLimit)
	assert.Equal(t, 61, preview.Total)
	assert.Equal(t, 60, preview.Valid)
	assert.Equal(t, 1, preview.Invalid)
	require.Len(t, preview.Errors, 1)
	assert.Equal(t, RowError{Line: 62, Field: "email", Message: "invalid email"}, preview.Errors[0])
	assert.Equal(t, 2, preview.Rows[0].Line)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
