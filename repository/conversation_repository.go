package repository

import (
	"context"

	"github.com/sandwichproject/platform/models"
)

// ConversationRepository persists dynamic conversations and their
// create-once participant sets.
type ConversationRepository interface {
	// Create inserts the conversation and its full participant list in one
	// transaction; a conversation is never visible with a partial set.
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	Participants(ctx context.Context, conversationID string) ([]string, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	// IDsForUser returns the IDs of every conversation the user belongs
	// to; mark-all-read stamps these alongside the fixed rooms.
	IDsForUser(ctx context.Context, userID string) ([]string, error)
}
