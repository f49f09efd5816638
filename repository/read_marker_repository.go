package repository

import (
	"context"
	"time"

	"github.com/sandwichproject/platform/models"
)

// RoomUnread is one fixed room's unread contribution for a user.
type RoomUnread struct {
	Room  string
	Count int
}

// ConversationUnread is one conversation type's unread contribution for a
// user. The aggregator maps "direct" to the direct bucket and every other
// type to groups.
type ConversationUnread struct {
	Type  string
	Count int
}

// ReadMarkerRepository persists the per-(user, channel) read watermark and
// answers the unread queries the aggregator is built on.
//
// Upsert is monotonic: the stored marker is MAX(existing, boundary), so a
// late or repeated MarkRead can never move a marker backward. It is
// therefore also idempotent.
type ReadMarkerRepository interface {
	Upsert(ctx context.Context, userID, channelID string, boundary time.Time) error
	// UpsertAll stamps boundary on every listed channel in one transaction.
	UpsertAll(ctx context.Context, userID string, channelIDs []string, boundary time.Time) error
	Get(ctx context.Context, userID, channelID string) (*models.ReadMarker, error)
	// RoomUnreadCounts counts, per listed room, the non-deleted messages
	// authored by others strictly after the user's marker. Rooms with no
	// rows simply do not appear in the result.
	RoomUnreadCounts(ctx context.Context, userID string, rooms []string) ([]RoomUnread, error)
	// ConversationUnreadCounts does the same grouped by conversation type,
	// restricted to conversations the user participates in.
	ConversationUnreadCounts(ctx context.Context, userID string) ([]ConversationUnread, error)
}
