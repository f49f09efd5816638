package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg"
)

func TestMessageRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.org", models.PermGeneralChat)
	msg := seedMessage(t, db, messages, models.RoomGeneral, alice, "hello", time.Time{})

	require.NotEmpty(t, msg.ID)
	require.False(t, msg.CreatedAt.IsZero())

	got, err := messages.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, alice.ID, got.UserID)
	assert.Equal(t, models.RoomGeneral, got.ChannelID)
}

func TestMessageRepo_ListByChannel(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.org", models.PermGeneralChat)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := seedMessage(t, db, messages, models.RoomGeneral, alice, "first", base)
	second := seedMessage(t, db, messages, models.RoomGeneral, alice, "second", base.Add(time.Second))
	third := seedMessage(t, db, messages, models.RoomGeneral, alice, "third", base.Add(2*time.Second))
	seedMessage(t, db, messages, models.RoomHosts, alice, "other room", base)

	t.Run("ascending full history", func(t *testing.T) {
		got, err := messages.ListByChannel(ctx, models.RoomGeneral, time.Time{}, 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"first", "second", "third"},
			[]string{got[0].Content, got[1].Content, got[2].Content})
	})

	t.Run("since is strictly after", func(t *testing.T) {
		got, err := messages.ListByChannel(ctx, models.RoomGeneral, first.CreatedAt, 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, second.ID, got[0].ID)
		assert.Equal(t, third.ID, got[1].ID)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		got, err := messages.ListByChannel(ctx, models.RoomGeneral, time.Time{}, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
	})

	t.Run("empty channel returns empty slice", func(t *testing.T) {
		got, err := messages.ListByChannel(ctx, models.RoomDrivers, time.Time{}, 0)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestMessageRepo_SoftDelete(t *testing.T) {
	db := newTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	messages := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.org", models.PermGeneralChat)
	msg := seedMessage(t, db, messages, models.RoomGeneral, alice, "to delete", time.Time{})

	require.NoError(t, messages.SoftDelete(ctx, msg.ID))

	// Gone from listings.
	got, err := messages.ListByChannel(ctx, models.RoomGeneral, time.Time{}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Deleting twice reports not found.
	err = messages.SoftDelete(ctx, msg.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	err = messages.SoftDelete(ctx, "no-such-id")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
