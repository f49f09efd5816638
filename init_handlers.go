// Package main — handler layer wire-up.
package main

import (
	"github.com/sandwichproject/platform/config"
	"github.com/sandwichproject/platform/handlers"
	"github.com/sandwichproject/platform/ws"
)

// Handlers is the container for every HTTP handler instance.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Message      *handlers.MessageHandler
	Chat         *handlers.ChatHandler
	Notification *handlers.NotificationHandler
	Conversation *handlers.ConversationHandler
	Stream       *handlers.StreamHandler
	Notify       *ws.NotifyHandler
	ChatWS       *ws.ChatHandler
}

func initHandlers(svcs *Services, repos *Repositories, hub *ws.Hub, cfg *config.Config) *Handlers {
	streamEnabled := cfg.Stream.APIKey != "" && cfg.Stream.APISecret != ""

	return &Handlers{
		Auth:         handlers.NewAuthHandler(svcs.Auth),
		Message:      handlers.NewMessageHandler(svcs.Message),
		Chat:         handlers.NewChatHandler(svcs.Message),
		Notification: handlers.NewNotificationHandler(svcs.Unread, svcs.ReadState),
		Conversation: handlers.NewConversationHandler(svcs.Conversation, svcs.Message),
		Stream:       handlers.NewStreamHandler(svcs.Stream, streamEnabled),
		Notify:       ws.NewNotifyHandler(hub),
		ChatWS:       ws.NewChatHandler(hub, svcs.Auth, repos.User),
	}
}
