// Package main — WebSocket hub callback wire-up.
//
// The hub lives in the ws package and must not depend on services; the
// services depend on ws.Publisher. main is the one place both layers are
// visible, so the chat-socket ops are bound to services here.
package main

import (
	"context"
	"log"
	"time"

	"github.com/sandwichproject/platform/ws"
)

// wsOpTimeout bounds one socket-initiated service call.
const wsOpTimeout = 10 * time.Second

// initHubCallbacks binds the chat-socket ops to the service layer. The
// callbacks run on per-event goroutines, never on the hub loop.
func initHubCallbacks(hub *ws.Hub, svcs *Services, repos *Repositories) {
	hub.SetOnChatMessage(func(userID, room, content string) {
		ctx, cancel := context.WithTimeout(context.Background(), wsOpTimeout)
		defer cancel()

		user, err := repos.User.GetByID(ctx, userID)
		if err != nil {
			log.Printf("[ws] chat message from unknown user %s: %v", userID, err)
			return
		}
		if _, err := svcs.Message.Create(ctx, user, room, content); err != nil {
			log.Printf("[ws] chat message rejected user=%s room=%s: %v", userID, room, err)
		}
	})

	hub.SetOnDeleteMessage(func(userID, messageID string) {
		ctx, cancel := context.WithTimeout(context.Background(), wsOpTimeout)
		defer cancel()

		user, err := repos.User.GetByID(ctx, userID)
		if err != nil {
			log.Printf("[ws] delete from unknown user %s: %v", userID, err)
			return
		}
		if err := svcs.Message.Delete(ctx, user, messageID); err != nil {
			log.Printf("[ws] delete rejected user=%s message=%s: %v", userID, messageID, err)
		}
	})

	hub.SetOnRoomHistory(func(userID, room string) (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), wsOpTimeout)
		defer cancel()

		user, err := repos.User.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		messages, err := svcs.Message.ListChannel(ctx, user, room, time.Time{}, 0)
		if err != nil {
			return nil, err
		}
		return map[string]any{"room": room, "messages": messages}, nil
	})
}
