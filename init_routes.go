// Package main — HTTP route registration.
//
// Route ordering rule: literal paths come before parametric paths, or
// the router reads the literal segment as a parameter value.
package main

import (
	"fmt"
	"net/http"

	"github.com/sandwichproject/platform/middleware"
	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/services"
)

// initRoutes builds the middleware chain and binds every endpoint.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	repos *Repositories,
) {
	authMw := middleware.NewAuthMiddleware(authService, repos.User)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"sandwich-platform"}`)
	})

	// Auth — public
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))

	// Committee messages
	mux.Handle("GET /api/messages", auth(h.Message.List))
	mux.Handle("POST /api/messages", auth(h.Message.Create))
	mux.Handle("DELETE /api/messages/{id}", auth(h.Message.Delete))

	// Room chat (REST adapter over the same store). "send" is literal and
	// must precede the {channel}/{messageId} routes.
	mux.Handle("POST /api/chat/send", auth(h.Chat.Send))
	mux.Handle("GET /api/chat/{channel}", auth(h.Chat.History))
	mux.Handle("DELETE /api/chat/{messageId}", auth(h.Chat.Delete))

	// Unread badges and read markers
	mux.Handle("GET /api/message-notifications/unread-counts", auth(h.Notification.UnreadCounts))
	mux.Handle("POST /api/message-notifications/mark-read", auth(h.Notification.MarkRead))
	mux.Handle("POST /api/message-notifications/mark-all-read", auth(h.Notification.MarkAllRead))

	// Conversations
	mux.Handle("GET /api/conversations", auth(h.Conversation.List))
	mux.Handle("POST /api/conversations", auth(h.Conversation.Create))
	mux.Handle("GET /api/conversations/{id}", auth(h.Conversation.Get))
	mux.Handle("GET /api/conversations/{id}/messages", auth(h.Conversation.Messages))
	mux.Handle("POST /api/conversations/{id}/messages", auth(h.Conversation.Send))

	// Stream Chat credentials. Stream hosts the direct-message surface,
	// so the same capability gates it.
	mux.Handle("POST /api/stream/credentials", authMw.Require(
		middleware.RequirePermission(models.PermDirectMessages, http.HandlerFunc(h.Stream.Credentials))))

	// WebSockets. The notification socket identifies in-band; the chat
	// socket authenticates with a token query parameter because browsers
	// cannot set headers on WebSocket requests.
	mux.HandleFunc("GET /notifications", h.Notify.HandleConnection)
	mux.HandleFunc("GET /ws/chat", h.ChatWS.HandleConnection)
}
