package repository

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sandwichproject/platform/database"
	"github.com/sandwichproject/platform/models"
)

// newTestDB opens a throwaway database with the real migrations applied.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrationsFS)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// seedUser inserts an account and returns it.
func seedUser(t *testing.T, repo UserRepository, email string, perms ...string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		DisplayName:  email,
		PasswordHash: "x",
		Role:         models.RoleVolunteer,
		Permissions:  perms,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

// seedMessage inserts a message. A non-zero at rewrites created_at so
// ordering assertions are deterministic.
func seedMessage(t *testing.T, db *database.DB, repo MessageRepository, channelID string, user *models.User, content string, at time.Time) *models.Message {
	t.Helper()

	msg := &models.Message{
		ChannelID:  channelID,
		UserID:     user.ID,
		SenderName: user.Name(),
		Content:    content,
	}
	require.NoError(t, repo.Create(context.Background(), msg))

	if !at.IsZero() {
		_, err := db.Conn.Exec(`UPDATE messages SET created_at = ? WHERE id = ?`, formatTime(at), msg.ID)
		require.NoError(t, err)
		msg.CreatedAt = at.UTC()
	}
	return msg
}
