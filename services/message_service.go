package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg"
	"github.com/sandwichproject/platform/pkg/ratelimit"
	"github.com/sandwichproject/platform/repository"
)

// MessageService owns every write and read of the consolidated message
// store. All transports (REST messages, REST chat, the room WebSocket)
// call through here, so policy checks and fan-out happen exactly once.
type MessageService interface {
	// Create validates, persists and fans out a message. channelID is a
	// fixed room name or a conversation ID.
	Create(ctx context.Context, sender *models.User, channelID, content string) (*models.Message, error)
	// ListChannel returns ascending non-deleted messages, optionally only
	// those strictly after since. limit <= 0 means no limit.
	ListChannel(ctx context.Context, user *models.User, channelID string, since time.Time, limit int) ([]models.Message, error)
	// Delete soft-deletes. Allowed for the sender and for moderators.
	Delete(ctx context.Context, user *models.User, messageID string) error
}

type messageService struct {
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
	notifier    NotifyService
	limiter     *ratelimit.MessageRateLimiter
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	notifier NotifyService,
	limiter *ratelimit.MessageRateLimiter,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		convRepo:    convRepo,
		notifier:    notifier,
		limiter:     limiter,
	}
}

func (s *messageService) Create(ctx context.Context, sender *models.User, channelID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < 1 || n > 2000 {
		return nil, fmt.Errorf("%w: message content must be 1-2000 characters", pkg.ErrBadRequest)
	}

	if err := s.checkAccess(ctx, sender, channelID, true); err != nil {
		return nil, err
	}

	if s.limiter != nil && !s.limiter.Allow(sender.ID) {
		return nil, fmt.Errorf("%w: too many messages, retry in %d seconds",
			pkg.ErrRateLimited, s.limiter.CooldownSeconds(sender.ID))
	}

	message := &models.Message{
		ChannelID:  channelID,
		UserID:     sender.ID,
		SenderName: sender.Name(),
		Content:    content,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// Fan-out is asynchronous and best-effort; a push failure never
	// fails the post.
	s.notifier.MessagePosted(sender, message)

	return message, nil
}

func (s *messageService) ListChannel(ctx context.Context, user *models.User, channelID string, since time.Time, limit int) ([]models.Message, error) {
	if err := s.checkAccess(ctx, user, channelID, false); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByChannel(ctx, channelID, since, limit)
}

func (s *messageService) Delete(ctx context.Context, user *models.User, messageID string) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if message.UserID != user.ID && !user.CanModerate() {
		return fmt.Errorf("%w: only the sender or a moderator can delete a message", pkg.ErrForbidden)
	}

	if err := s.messageRepo.SoftDelete(ctx, messageID); err != nil {
		return err
	}

	s.notifier.MessageDeleted(message)
	return nil
}

// checkAccess enforces the channel policy: fixed rooms go through the
// room policy table, conversations require membership plus the direct or
// group capability.
func (s *messageService) checkAccess(ctx context.Context, user *models.User, channelID string, posting bool) error {
	if models.IsRoom(channelID) {
		if !models.CanAccessRoom(user, channelID) {
			return fmt.Errorf("%w: no access to %s", pkg.ErrForbidden, channelID)
		}
		return nil
	}

	conv, err := s.convRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}

	member, err := s.convRepo.IsParticipant(ctx, conv.ID, user.ID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: not a participant of this conversation", pkg.ErrForbidden)
	}

	if user.Role == models.RoleAdmin {
		return nil
	}
	required := models.PermGroupMessages
	if conv.Type == models.ConversationDirect {
		required = models.PermDirectMessages
	}
	if !user.HasPermission(required) {
		verb := "read"
		if posting {
			verb = "post"
		}
		return fmt.Errorf("%w: missing %s capability to %s here", pkg.ErrForbidden, required, verb)
	}
	return nil
}
