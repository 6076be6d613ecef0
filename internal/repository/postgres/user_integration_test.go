package postgres

import (
	"context"
	"os"
	"strconv"
	"testing"
	"user-service/internal/config"
	"user-service/internal/domain/user"
	apperrors "user-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests run only when TEST_DB_HOST points at a reachable postgres.
func newTestRepository(t *testing.T) *UserRepository {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set")
	}

	port, err := strconv.Atoi(envOr("TEST_DB_PORT", "5432"))
	require.NoError(t, err)

	db, err := New(&config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Database: envOr("TEST_DB_NAME", "users_test"),
		User:     envOr("TEST_DB_USER", "postgres"),
		Password: os.Getenv("TEST_DB_PASSWORD"),
		SSLMode:  envOr("TEST_DB_SSLMODE", "disable"),
		MaxConns: 4,
		MinConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(context.Background()))
	return NewUserRepository(db)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newUser returns an unsaved user with a run-unique name and removes the row
// after the test.
func newUser(t *testing.T, r *UserRepository, role user.Role) *user.User {
	t.Helper()

	u := &user.User{
		Username:     "it_" + uuid.NewString()[:8],
		PasswordHash: "$2a$04$digest",
		Role:         role,
	}
	u.Email = u.Username + "@example.com"

	t.Cleanup(func() {
		_, _ = r.db.Pool.Exec(context.Background(), "DELETE FROM users WHERE username = $1", u.Username)
	})
	return u
}

func TestUserRepository_SaveInsertsAndFinds(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	u := newUser(t, r, user.RoleUser)
	require.NoError(t, r.Save(ctx, u))
	assert.Positive(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byID, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, byID.Username)
	assert.Equal(t, user.RoleUser, byID.Role)

	byName, err := r.FindByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
}

func TestUserRepository_SaveDuplicateConflicts(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	u := newUser(t, r, user.RoleUser)
	require.NoError(t, r.Save(ctx, u))

	dup := &user.User{Username: u.Username, Email: "other@example.com", PasswordHash: "x", Role: user.RoleUser}
	assert.ErrorIs(t, r.Save(ctx, dup), apperrors.ErrConflict)
}

func TestUserRepository_SaveUpdates(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	u := newUser(t, r, user.RoleUser)
	require.NoError(t, r.Save(ctx, u))

	u.Email = "changed@example.com"
	u.Role = user.RoleAdmin
	require.NoError(t, r.Save(ctx, u))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed@example.com", got.Email)
	assert.Equal(t, user.RoleAdmin, got.Role)

	other := newUser(t, r, user.RoleUser)
	require.NoError(t, r.Save(ctx, other))
	other.Username = u.Username
	assert.ErrorIs(t, r.Save(ctx, other), apperrors.ErrConflict)
}

func TestUserRepository_UpdateMissingIsNotFound(t *testing.T) {
	r := newTestRepository(t)

	missing := &user.User{ID: 1 << 40, Username: "ghost", Email: "ghost@example.com", PasswordHash: "x", Role: user.RoleUser}
	assert.ErrorIs(t, r.Save(context.Background(), missing), apperrors.ErrNotFound)
}

func TestUserRepository_FindAllIncludesSaved(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	first := newUser(t, r, user.RoleUser)
	second := newUser(t, r, user.RoleAdmin)
	require.NoError(t, r.Save(ctx, first))
	require.NoError(t, r.Save(ctx, second))

	all, err := r.FindAll(ctx)
	require.NoError(t, err)

	var ids []int64
	for _, u := range all {
		if u.ID == first.ID || u.ID == second.ID {
			ids = append(ids, u.ID)
		}
	}
	assert.Equal(t, []int64{first.ID, second.ID}, ids)
}

func TestUserRepository_DeleteByID(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	u := newUser(t, r, user.RoleUser)
	require.NoError(t, r.Save(ctx, u))

	require.NoError(t, r.DeleteByID(ctx, u.ID))
	assert.ErrorIs(t, r.DeleteByID(ctx, u.ID), apperrors.ErrNotFound)

	_, err := r.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_SaveRejectsInvalidInput(t *testing.T) {
	r := &UserRepository{}

	assert.ErrorIs(t, r.Save(context.Background(), nil), apperrors.ErrBadRequest)
	assert.ErrorIs(t, r.Save(context.Background(), &user.User{Role: user.Role("ROOT")}), apperrors.ErrBadRequest)
}
