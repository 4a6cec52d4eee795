package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/db/dbtest"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
)

func newProvisionService(t *testing.T) (ProvisionService, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewProvisionService(ProvisionServiceParams{DB: client, PasswordConfig: cheapArgon})
	require.NoError(t, err)
	return svc, client
}

func TestProvisionCreatesClubResponsible(t *testing.T) {
	svc, client := newProvisionService(t)
	club := &models.Club{Name: "AS Brest", Region: "bretagne", Status: "actif"}
	require.NoError(t, client.DB().Create(club).Error)

	created, err := svc.Provision(context.Background(), ProvisionRequest{
		Email:       " Rep@Club.fr ",
		Password:    "long-enough",
		DisplayName: "Representant",
		Role:        enums.UserRoleClub,
		ClubID:      &club.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "rep@club.fr", created.Email)

	var reloaded models.Club
	require.NoError(t, client.DB().First(&reloaded, "id = ?", club.ID).Error)
	require.NotNil(t, reloaded.ResponsibleID)
	assert.Equal(t, created.ID, *reloaded.ResponsibleID)
}

func TestProvisionStaffNormalisesRegion(t *testing.T) {
	svc, _ := newProvisionService(t)
	region := "Île-de-France"

	created, err := svc.Provision(context.Background(), ProvisionRequest{
		Email:    "staff@ufsc.fr",
		Password: "long-enough",
		Role:     enums.UserRoleStaff,
		Region:   &region,
	})
	require.NoError(t, err)
	require.NotNil(t, created.Region)
	assert.Equal(t, "ile_de_france", *created.Region)
	assert.Equal(t, "staff@ufsc.fr", created.DisplayName)
}

func TestProvisionRejectsDuplicatesAndBadInput(t *testing.T) {
	svc, _ := newProvisionService(t)
	ctx := context.Background()
	base := ProvisionRequest{Email: "dup@club.fr", Password: "long-enough", Role: enums.UserRoleClub}

	_, err := svc.Provision(ctx, base)
	require.NoError(t, err)
	_, err = svc.Provision(ctx, base)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	short := base
	short.Email, short.Password = "short@club.fr", "short"
	_, err = svc.Provision(ctx, short)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	badRole := base
	badRole.Email, badRole.Role = "role@club.fr", enums.UserRole("president")
	_, err = svc.Provision(ctx, badRole)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	missingClub := base
	missingClub.Email = "ghost@club.fr"
	ghost := uuid.New()
	missingClub.ClubID = &ghost
	_, err = svc.Provision(ctx, missingClub)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
