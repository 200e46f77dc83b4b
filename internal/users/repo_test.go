package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/pkg/db"
	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))
	return NewRepository(conn)
}

func TestCreateNormalizesAndDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "  Staff@Example.com ",
		PasswordHash: "hash",
		FullName:     " Adjoa Staff ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "staff@example.com", user.Email)
	assert.Equal(t, "Adjoa Staff", user.FullName)
	assert.Equal(t, enums.UserRoleCustomer, user.Role)
	assert.True(t, user.IsActive)

	found, err := repo.FindByEmail(ctx, "staff@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "staff@example.com", PasswordHash: "hash", FullName: "Dup"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestUpdateLastLoginAndLinkCustomer(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: "kwame@example.com", PasswordHash: "hash", FullName: "Kwame"})
	require.NoError(t, err)

	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))
	require.NoError(t, repo.LinkCustomer(ctx, user.ID, "CUST-00001"))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, found.LastLoginAt.Equal(at))
	require.NotNil(t, found.Customer)
	assert.Equal(t, "CUST-00001", *found.Customer)

	err = repo.LinkCustomer(ctx, "missing", "CUST-00001")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestFromModelOmitsPasswordHash(t *testing.T) {
	dto := FromModel(&models.User{ID: "u1", Email: "a@example.com", PasswordHash: "secret", Role: enums.UserRoleStaff})
	require.NotNil(t, dto)
	assert.Equal(t, enums.UserRoleStaff, dto.Role)
	assert.Nil(t, FromModel(nil))
}
