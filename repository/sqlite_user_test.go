package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg"
)

func TestUserRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.org", models.PermGeneralChat, models.PermDirectMessages)
	require.NotEmpty(t, alice.ID)

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.org", got.Email)
	assert.Equal(t, []string{models.PermGeneralChat, models.PermDirectMessages}, got.Permissions)

	got, err = users.GetByEmail(ctx, "alice@example.org")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = users.GetByEmail(ctx, "nobody@example.org")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)

	seedUser(t, users, "alice@example.org")

	dup := &models.User{Email: "alice@example.org", PasswordHash: "x", Role: models.RoleVolunteer}
	err := users.Create(context.Background(), dup)
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestUserRepo_IDsWithPermission(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.org", models.PermHostChat)
	seedUser(t, users, "bob@example.org", models.PermDriverChat)

	// Admins hold every capability implicitly.
	admin := &models.User{Email: "admin@example.org", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, users.Create(ctx, admin))

	ids, err := users.IDsWithPermission(ctx, models.PermHostChat)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice.ID, admin.ID}, ids)
}

func TestUserRepo_GetByIDs(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.org")
	bob := seedUser(t, users, "bob@example.org")

	got, err := users.GetByIDs(ctx, []string{alice.ID, bob.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = users.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
