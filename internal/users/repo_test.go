package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ufsc-france/gestion-backend/pkg/db"
	"github.com/ufsc-france/gestion-backend/pkg/db/dbtest"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	"gorm.io/gorm"
)

func TestRepositoryLifecycle(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()
	region := "bretagne"

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "  Staff@UFSC.fr ",
		PasswordHash: "hash",
		DisplayName:  "Staff",
		Role:         enums.UserRoleStaff,
		Region:       &region,
	})
	require.NoError(t, err)
	assert.Equal(t, "staff@ufsc.fr", user.Email)

	found, err := repo.FindByEmail(ctx, "staff@ufsc.fr")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, enums.UserRoleStaff, found.Role)

	at := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))
	require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, "rehashed"))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, at.Equal(*reloaded.LastLoginAt))
	assert.Equal(t, "rehashed", reloaded.PasswordHash)

	dto := FromModel(reloaded)
	assert.Equal(t, "staff@ufsc.fr", dto.Email)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "staff@ufsc.fr", PasswordHash: "x", DisplayName: "Dup"})
	assert.True(t, db.IsUniqueViolation(err, ""))

	_, err = repo.FindByEmail(ctx, "missing@ufsc.fr")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	taken, err := repo.EmailTaken(ctx, " STAFF@ufsc.fr")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repo.EmailTaken(ctx, "other@ufsc.fr")
	require.NoError(t, err)
	assert.False(t, taken)

	err = repo.UpdateLastLogin(ctx, uuid.New(), at)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
