package services

import (
	"context"
	"fmt"

	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg"
	"github.com/sandwichproject/platform/repository"
)

// ConversationService creates and lists dynamic conversations. The
// participant set is fixed at creation; clients reuse an existing
// conversation from List instead of re-creating it.
type ConversationService interface {
	Create(ctx context.Context, creator *models.User, req *models.CreateConversationRequest) (*models.Conversation, error)
	List(ctx context.Context, userID string) ([]models.Conversation, error)
	Get(ctx context.Context, user *models.User, id string) (*models.Conversation, error)
}

type conversationService struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
}

func NewConversationService(convRepo repository.ConversationRepository, userRepo repository.UserRepository) ConversationService {
	return &conversationService{convRepo: convRepo, userRepo: userRepo}
}

func (s *conversationService) Create(ctx context.Context, creator *models.User, req *models.CreateConversationRequest) (*models.Conversation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if creator.Role != models.RoleAdmin {
		required := models.PermGroupMessages
		if req.Type == models.ConversationDirect {
			required = models.PermDirectMessages
		}
		if !creator.HasPermission(required) {
			return nil, fmt.Errorf("%w: missing %s capability", pkg.ErrForbidden, required)
		}
	}

	// Dedupe and fold the creator in.
	seen := map[string]bool{creator.ID: true}
	participants := []string{creator.ID}
	for _, id := range req.Participants {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		participants = append(participants, id)
	}
	if len(participants) < 2 {
		return nil, fmt.Errorf("%w: a conversation needs at least one other participant", pkg.ErrBadRequest)
	}

	// Every listed participant must be a real account.
	others := participants[1:]
	users, err := s.userRepo.GetByIDs(ctx, others)
	if err != nil {
		return nil, err
	}
	if len(users) != len(others) {
		return nil, fmt.Errorf("%w: one or more participants do not exist", pkg.ErrBadRequest)
	}

	conv := &models.Conversation{
		Type:         req.Type,
		Name:         req.Name,
		CreatedBy:    creator.ID,
		Participants: participants,
	}
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

func (s *conversationService) List(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.convRepo.ListForUser(ctx, userID)
}

func (s *conversationService) Get(ctx context.Context, user *models.User, id string) (*models.Conversation, error) {
	member, err := s.convRepo.IsParticipant(ctx, id, user.ID)
	if err != nil {
		return nil, err
	}
	if !member && user.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: not a participant of this conversation", pkg.ErrForbidden)
	}

	conv, err := s.convRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	participants, err := s.convRepo.Participants(ctx, id)
	if err != nil {
		return nil, err
	}
	conv.Participants = participants
	return conv, nil
}
