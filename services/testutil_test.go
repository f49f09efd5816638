package services

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sandwichproject/platform/database"
	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/repository"
	"github.com/sandwichproject/platform/ws"
	"github.com/stretchr/testify/require"
)

// testEnv wires real sqlite repositories against a throwaway database so
// service tests exercise the same SQL the server runs.
type testEnv struct {
	db      *database.DB
	users   repository.UserRepository
	msgs    repository.MessageRepository
	convs   repository.ConversationRepository
	markers repository.ReadMarkerRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrationsFS)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &testEnv{
		db:      db,
		users:   repository.NewSQLiteUserRepo(db.Conn),
		msgs:    repository.NewSQLiteMessageRepo(db.Conn),
		convs:   repository.NewSQLiteConversationRepo(db.Conn),
		markers: repository.NewSQLiteReadMarkerRepo(db.Conn),
	}
}

func (e *testEnv) createUser(t *testing.T, email, role string, perms ...string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		DisplayName:  email,
		PasswordHash: "x",
		Role:         role,
		Permissions:  perms,
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) createConversation(t *testing.T, convType, createdBy string, participants ...string) *models.Conversation {
	t.Helper()
	conv := &models.Conversation{
		Type:         convType,
		CreatedBy:    createdBy,
		Participants: participants,
	}
	require.NoError(t, e.convs.Create(context.Background(), conv))
	return conv
}

// fakePublisher records fan-out traffic instead of touching sockets.
type fakePublisher struct {
	mu            sync.Mutex
	notifications map[string][]ws.Notification
	roomEvents    map[string][]ws.Event
	userEvents    map[string][]ws.Event
	online        map[string]bool
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		notifications: make(map[string][]ws.Notification),
		roomEvents:    make(map[string][]ws.Event),
		userEvents:    make(map[string][]ws.Event),
		online:        make(map[string]bool),
	}
}

func (f *fakePublisher) NotifyUser(userID string, n ws.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[userID] = append(f.notifications[userID], n)
}

func (f *fakePublisher) BroadcastToRoom(room string, event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roomEvents[room] = append(f.roomEvents[room], event)
}

func (f *fakePublisher) BroadcastToUser(userID string, event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userEvents[userID] = append(f.userEvents[userID], event)
}

func (f *fakePublisher) IsOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func (f *fakePublisher) notificationsFor(userID string) []ws.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ws.Notification(nil), f.notifications[userID]...)
}

func (f *fakePublisher) roomEventsFor(room string) []ws.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ws.Event(nil), f.roomEvents[room]...)
}

func (f *fakePublisher) userEventsFor(userID string) []ws.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ws.Event(nil), f.userEvents[userID]...)
}
