package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sandwichproject/platform/pkg"
	"github.com/sandwichproject/platform/services"
)

// ChatHandler is the room-chat REST surface. It is a thin adapter over
// the same message service the committee endpoints use; the two surfaces
// differ only in shape, never in behavior.
type ChatHandler struct {
	messageService services.MessageService
}

func NewChatHandler(messageService services.MessageService) *ChatHandler {
	return &ChatHandler{messageService: messageService}
}

// History handles GET /api/chat/{channel}: the room's full non-deleted
// history, ascending.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	channelID := r.PathValue("channel")
	if channelID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "channel is required")
		return
	}

	messages, err := h.messageService.ListChannel(r.Context(), user, channelID, time.Time{}, 0)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// Send handles POST /api/chat/send with body {room, content}.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req struct {
		Room    string `json:"room"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Room == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "room is required")
		return
	}

	message, err := h.messageService.Create(r.Context(), user, req.Room, req.Content)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, message)
}

// Delete handles DELETE /api/chat/{messageId}.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	id := r.PathValue("messageId")
	if id == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "message id is required")
		return
	}

	if err := h.messageService.Delete(r.Context(), user, id); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}
