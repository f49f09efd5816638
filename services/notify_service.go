package services

import (
	"context"
	"log"
	"time"

	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg/email"
	"github.com/sandwichproject/platform/repository"
	"github.com/sandwichproject/platform/ws"
)

// NotifyService fans a stored message out to its audience: chat events
// to joined room sockets, flat notification frames to every recipient's
// notification sockets, and fallback emails to offline direct-message
// recipients. Everything here is best-effort and at-most-once; the
// authoritative unread state is always recomputed from the store.
type NotifyService interface {
	MessagePosted(sender *models.User, message *models.Message)
	MessageDeleted(message *models.Message)
}

// fanOutTimeout bounds the recipient queries of one fan-out pass.
const fanOutTimeout = 10 * time.Second

type notifyService struct {
	userRepo repository.UserRepository
	convRepo repository.ConversationRepository
	pub      ws.Publisher
	emails   email.EmailSender // nil when email is disabled
}

func NewNotifyService(
	userRepo repository.UserRepository,
	convRepo repository.ConversationRepository,
	pub ws.Publisher,
	emails email.EmailSender,
) NotifyService {
	return &notifyService{
		userRepo: userRepo,
		convRepo: convRepo,
		pub:      pub,
		emails:   emails,
	}
}

// MessagePosted returns immediately; delivery happens in a goroutine so
// a slow push or email can never delay the HTTP response.
func (s *notifyService) MessagePosted(sender *models.User, message *models.Message) {
	go s.fanOut(sender, message)
}

func (s *notifyService) fanOut(sender *models.User, message *models.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[notify] fan-out panic for message %s: %v", message.ID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), fanOutTimeout)
	defer cancel()

	if models.IsRoom(message.ChannelID) {
		s.fanOutRoom(ctx, sender, message)
		return
	}
	s.fanOutConversation(ctx, sender, message)
}

func (s *notifyService) fanOutRoom(ctx context.Context, sender *models.User, message *models.Message) {
	// Joined chat sockets get the full message.
	s.pub.BroadcastToRoom(message.ChannelID, ws.Event{Op: ws.OpNewMessage, Data: message})

	recipients, err := s.userRepo.IDsWithPermission(ctx, models.RoomPolicies[message.ChannelID])
	if err != nil {
		log.Printf("[notify] failed to resolve recipients for %s: %v", message.ChannelID, err)
		return
	}

	n := notification(message)
	for _, id := range recipients {
		if id == sender.ID {
			continue
		}
		s.pub.NotifyUser(id, n)
	}
}

func (s *notifyService) fanOutConversation(ctx context.Context, sender *models.User, message *models.Message) {
	conv, err := s.convRepo.GetByID(ctx, message.ChannelID)
	if err != nil {
		log.Printf("[notify] failed to load conversation %s: %v", message.ChannelID, err)
		return
	}
	participants, err := s.convRepo.Participants(ctx, conv.ID)
	if err != nil {
		log.Printf("[notify] failed to resolve participants of %s: %v", conv.ID, err)
		return
	}

	n := notification(message)
	for _, id := range participants {
		if id == sender.ID {
			continue
		}
		s.pub.BroadcastToUser(id, ws.Event{Op: ws.OpNewMessage, Data: message})
		s.pub.NotifyUser(id, n)

		if conv.Type == models.ConversationDirect && s.emails != nil && !s.pub.IsOnline(id) {
			s.sendOfflineEmail(ctx, id, sender, message)
		}
	}
}

// sendOfflineEmail is the last-resort channel for a direct message whose
// recipient holds no open connection.
func (s *notifyService) sendOfflineEmail(ctx context.Context, recipientID string, sender *models.User, message *models.Message) {
	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		log.Printf("[notify] failed to load offline recipient %s: %v", recipientID, err)
		return
	}
	if err := s.emails.SendMessageNotification(ctx, recipient.Email, sender.Name(), message.Preview()); err != nil {
		log.Printf("[notify] failed to email %s: %v", recipient.Email, err)
	}
}

func (s *notifyService) MessageDeleted(message *models.Message) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[notify] delete fan-out panic for message %s: %v", message.ID, r)
			}
		}()

		event := ws.Event{
			Op:   ws.OpMessageDeleted,
			Data: map[string]string{"message_id": message.ID, "channel_id": message.ChannelID},
		}

		if models.IsRoom(message.ChannelID) {
			s.pub.BroadcastToRoom(message.ChannelID, event)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), fanOutTimeout)
		defer cancel()
		participants, err := s.convRepo.Participants(ctx, message.ChannelID)
		if err != nil {
			log.Printf("[notify] failed to resolve participants of %s: %v", message.ChannelID, err)
			return
		}
		for _, id := range participants {
			s.pub.BroadcastToUser(id, event)
		}
	}()
}

func notification(message *models.Message) ws.Notification {
	return ws.Notification{
		Type:      "new_message",
		Committee: message.ChannelID,
		Sender:    message.SenderName,
		Content:   message.Preview(),
	}
}
