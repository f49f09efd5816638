// Package main — service layer wire-up.
//
// Each service takes its repository interfaces and shared dependencies
// by constructor injection. The notify service must exist before the
// message service, which hands it every stored message.
package main

import (
	"log"
	"time"

	"github.com/sandwichproject/platform/config"
	"github.com/sandwichproject/platform/pkg/email"
	"github.com/sandwichproject/platform/pkg/ratelimit"
	"github.com/sandwichproject/platform/services"
	"github.com/sandwichproject/platform/ws"
)

// Services is the container for every service instance.
type Services struct {
	Auth         services.AuthService
	Message      services.MessageService
	Conversation services.ConversationService
	ReadState    services.ReadStateService
	Unread       services.UnreadService
	Notify       services.NotifyService
	Stream       services.StreamService
}

// initServices builds every service plus the message rate limiter.
// pub is the hub itself or the Redis bridge wrapping it.
func initServices(repos *Repositories, pub ws.Publisher, cfg *config.Config) (*Services, *ratelimit.MessageRateLimiter) {
	var emailSender email.EmailSender
	if cfg.Email.ResendAPIKey != "" && cfg.Email.FromEmail != "" {
		emailSender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
		log.Printf("[main] email notifications enabled (from=%s)", cfg.Email.FromEmail)
	}

	// 10 messages per 10s, then a 30s cooldown.
	limiter := ratelimit.NewMessageRateLimiter(10, 10*time.Second, 30*time.Second)

	notifyService := services.NewNotifyService(repos.User, repos.Conversation, pub, emailSender)

	return &Services{
		Auth:         services.NewAuthService(repos.User, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry),
		Message:      services.NewMessageService(repos.Message, repos.Conversation, notifyService, limiter),
		Conversation: services.NewConversationService(repos.Conversation, repos.User),
		ReadState:    services.NewReadStateService(repos.ReadMarker, repos.Conversation),
		Unread:       services.NewUnreadService(repos.ReadMarker),
		Notify:       notifyService,
		Stream:       services.NewStreamService(cfg.Stream.APIKey, cfg.Stream.APISecret),
	}, limiter
}
