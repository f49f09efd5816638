package handlers

import (
	"net/http"

	"github.com/sandwichproject/platform/pkg"
	"github.com/sandwichproject/platform/services"
)

// StreamHandler serves the Stream Chat credentials endpoint.
type StreamHandler struct {
	streamService services.StreamService
	enabled       bool
}

func NewStreamHandler(streamService services.StreamService, enabled bool) *StreamHandler {
	return &StreamHandler{streamService: streamService, enabled: enabled}
}

// Credentials handles POST /api/stream/credentials. Returns 503 when the
// integration is not configured so clients can hide the surface.
func (h *StreamHandler) Credentials(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if !h.enabled {
		pkg.ErrorWithMessage(w, http.StatusServiceUnavailable, "stream chat is not configured")
		return
	}

	creds, err := h.streamService.Credentials(user)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, creds)
}
