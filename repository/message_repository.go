package repository

import (
	"context"
	"time"

	"github.com/sandwichproject/platform/models"
)

// MessageRepository is the persistence interface for the consolidated
// message store. Every chat surface (REST chat, room WebSocket,
// conversations) reads and writes through this one interface.
//
// ListByChannel returns messages in ascending creation order, excluding
// soft-deleted rows. A non-zero since returns only messages strictly
// after it. The sequence is finite and restartable: a fresh call
// re-derives it.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByChannel(ctx context.Context, channelID string, since time.Time, limit int) ([]models.Message, error)
	// SoftDelete marks the message deleted in a single UPDATE so any
	// concurrent unread computation sees either the pre- or post-delete
	// state. It reports pkg.ErrNotFound for unknown or already-deleted IDs.
	SoftDelete(ctx context.Context, id string) error
}
