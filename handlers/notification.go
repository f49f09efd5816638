package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg"
	"github.com/sandwichproject/platform/services"
)

// NotificationHandler serves the unread-count and mark-read endpoints.
type NotificationHandler struct {
	unreadService    services.UnreadService
	readStateService services.ReadStateService
}

func NewNotificationHandler(unreadService services.UnreadService, readStateService services.ReadStateService) *NotificationHandler {
	return &NotificationHandler{
		unreadService:    unreadService,
		readStateService: readStateService,
	}
}

// UnreadCounts handles GET /api/message-notifications/unread-counts.
//
// Badges are advisory: when the store fails, the endpoint still returns
// 200 with zeroed counts and stale=true so navigation never breaks. The
// client keeps its previous badge instead of trusting the zeros.
func (h *NotificationHandler) UnreadCounts(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	counts, err := h.unreadService.Counts(r.Context(), user)
	if err != nil {
		log.Printf("[notifications] unread counts failed for user %s: %v", user.ID, err)
		pkg.JSON(w, http.StatusOK, &models.UnreadCounts{Stale: true})
		return
	}

	pkg.JSON(w, http.StatusOK, counts)
}

// MarkRead handles POST /api/message-notifications/mark-read with body
// {committee, up_to?}. Without up_to the boundary is "now".
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req struct {
		Committee string `json:"committee"`
		UpTo      string `json:"up_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var boundary time.Time
	if req.UpTo != "" {
		parsed, err := time.Parse(time.RFC3339Nano, req.UpTo)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "up_to must be an RFC 3339 timestamp")
			return
		}
		boundary = parsed
	}

	if err := h.readStateService.MarkRead(r.Context(), user, req.Committee, boundary); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "marked read"})
}

// MarkAllRead handles POST /api/message-notifications/mark-all-read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.readStateService.MarkAllRead(r.Context(), user); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "all channels marked read"})
}
