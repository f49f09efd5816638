package handlers

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandwichproject/platform/database"
	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/repository"
	"github.com/sandwichproject/platform/services"
	"github.com/sandwichproject/platform/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conversationFixture struct {
	handler  *ConversationHandler
	convSvc  services.ConversationService
	userRepo repository.UserRepository
}

// newConversationFixture wires the handler against real services and a
// throwaway database. The hub has no connected clients, so fan-out is a
// no-op.
func newConversationFixture(t *testing.T) *conversationFixture {
	t.Helper()

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrationsFS)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := repository.NewSQLiteUserRepo(db.Conn)
	msgs := repository.NewSQLiteMessageRepo(db.Conn)
	convs := repository.NewSQLiteConversationRepo(db.Conn)

	notifier := services.NewNotifyService(users, convs, ws.NewHub(), nil)
	msgSvc := services.NewMessageService(msgs, convs, notifier, nil)
	convSvc := services.NewConversationService(convs, users)

	return &conversationFixture{
		handler:  NewConversationHandler(convSvc, msgSvc),
		convSvc:  convSvc,
		userRepo: users,
	}
}

func (f *conversationFixture) createUser(t *testing.T, email string, perms ...string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		DisplayName:  email,
		PasswordHash: "x",
		Role:         models.RoleVolunteer,
		Permissions:  perms,
	}
	require.NoError(t, f.userRepo.Create(context.Background(), user))
	return user
}

// conversationRequest builds an authenticated request with the
// conversation id bound as a path value, the way the router would.
func conversationRequest(user *models.User, method, convID, body string) *http.Request {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, "/api/conversations/"+convID+"/messages", reader)
	req.SetPathValue("id", convID)
	return req.WithContext(context.WithValue(req.Context(), UserContextKey, user))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, out any) bool {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if env.Success && out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env.Success
}

func TestConversationHandler_SendAndListMessages(t *testing.T) {
	f := newConversationFixture(t)

	alice := f.createUser(t, "alice@sandwich.org", models.PermDirectMessages)
	bob := f.createUser(t, "bob@sandwich.org", models.PermDirectMessages)

	conv, err := f.convSvc.Create(context.Background(), alice, &models.CreateConversationRequest{
		Type:         models.ConversationDirect,
		Participants: []string{bob.ID},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.handler.Send(rec, conversationRequest(alice, http.MethodPost, conv.ID, `{"content":"hi bob"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Message
	require.True(t, decodeEnvelope(t, rec, &created))
	assert.Equal(t, conv.ID, created.ChannelID)
	assert.Equal(t, "hi bob", created.Content)

	// The other participant reads the same store through the same route.
	rec = httptest.NewRecorder()
	f.handler.Messages(rec, conversationRequest(bob, http.MethodGet, conv.ID, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var messages []models.Message
	require.True(t, decodeEnvelope(t, rec, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, created.ID, messages[0].ID)
}

func TestConversationHandler_MessagesRequireMembership(t *testing.T) {
	f := newConversationFixture(t)

	alice := f.createUser(t, "alice@sandwich.org", models.PermDirectMessages)
	bob := f.createUser(t, "bob@sandwich.org", models.PermDirectMessages)
	mallory := f.createUser(t, "mallory@sandwich.org", models.PermDirectMessages)

	conv, err := f.convSvc.Create(context.Background(), alice, &models.CreateConversationRequest{
		Type:         models.ConversationDirect,
		Participants: []string{bob.ID},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	f.handler.Messages(rec, conversationRequest(mallory, http.MethodGet, conv.ID, ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.Send(rec, conversationRequest(mallory, http.MethodPost, conv.ID, `{"content":"let me in"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
