package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/sandwichproject/platform/models"
)

// TokenValidator is the slice of the auth service the chat handler
// needs. Defined here so ws never imports services (services already
// depend on ws.Publisher).
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// UserSource loads the connecting user so room access can be resolved
// once, at connect time.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ChatHandler serves the room-chat socket. Browsers cannot set headers
// on WebSocket requests, so the JWT rides the query string:
//
//	ws://server/ws/chat?token=JWT
type ChatHandler struct {
	hub            *Hub
	tokenValidator TokenValidator
	users          UserSource
}

func NewChatHandler(hub *Hub, tokenValidator TokenValidator, users UserSource) *ChatHandler {
	return &ChatHandler{
		hub:            hub,
		tokenValidator: tokenValidator,
		users:          users,
	}
}

// HandleConnection authenticates, upgrades, and registers the client.
// The first server frame lists the rooms the user may join.
func (h *ChatHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "unknown user", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] chat upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	rooms := models.AllowedRooms(user)
	allowed := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		allowed[room] = true
	}

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		userID:  user.ID,
		name:    user.Name(),
		kind:    kindChat,
		rooms:   make(map[string]bool),
		allowed: allowed,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
	}

	h.hub.register <- client

	client.sendEvent(Event{Op: OpRooms, Data: RoomsData{Rooms: rooms}})

	go client.WritePump()
	client.ReadPump()
}
