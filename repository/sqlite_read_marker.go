package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandwichproject/platform/database"
	"github.com/sandwichproject/platform/models"
)

type sqliteReadMarkerRepo struct {
	db database.TxQuerier
}

// NewSQLiteReadMarkerRepo returns the SQLite-backed ReadMarkerRepository.
func NewSQLiteReadMarkerRepo(db database.TxQuerier) ReadMarkerRepository {
	return &sqliteReadMarkerRepo{db: db}
}

// Upsert writes MAX(existing, boundary). MAX on the fixed-width timestamp
// text is a chronological max, so concurrent out-of-order calls converge
// on the latest boundary no matter the arrival order.
func (r *sqliteReadMarkerRepo) Upsert(ctx context.Context, userID, channelID string, boundary time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO read_markers (user_id, channel_id, last_read_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, channel_id)
		DO UPDATE SET last_read_at = MAX(last_read_at, excluded.last_read_at)`,
		userID, channelID, formatTime(boundary),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert read marker: %w", err)
	}
	return nil
}

func (r *sqliteReadMarkerRepo) UpsertAll(ctx context.Context, userID string, channelIDs []string, boundary time.Time) error {
	if len(channelIDs) == 0 {
		return nil
	}

	stamp := formatTime(boundary)
	var sb strings.Builder
	sb.WriteString(`INSERT INTO read_markers (user_id, channel_id, last_read_at) VALUES `)
	args := make([]any, 0, len(channelIDs)*3)
	for i, ch := range channelIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, userID, ch, stamp)
	}
	sb.WriteString(` ON CONFLICT(user_id, channel_id)
		DO UPDATE SET last_read_at = MAX(last_read_at, excluded.last_read_at)`)

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to upsert read markers: %w", err)
	}
	return nil
}

// Get returns the marker, or a zero-time marker when the user has never
// visited the channel, so every existing message counts as unread.
func (r *sqliteReadMarkerRepo) Get(ctx context.Context, userID, channelID string) (*models.ReadMarker, error) {
	marker := &models.ReadMarker{UserID: userID, ChannelID: channelID}

	var lastReadAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT last_read_at FROM read_markers WHERE user_id = ? AND channel_id = ?`,
		userID, channelID,
	).Scan(&lastReadAt)

	if errors.Is(err, sql.ErrNoRows) {
		return marker, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get read marker: %w", err)
	}

	t, err := parseTime(lastReadAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_read_at: %w", err)
	}
	marker.LastReadAt = t
	return marker, nil
}

func (r *sqliteReadMarkerRepo) RoomUnreadCounts(ctx context.Context, userID string, rooms []string) ([]RoomUnread, error) {
	if len(rooms) == 0 {
		return []RoomUnread{}, nil
	}

	placeholders := strings.Repeat("?,", len(rooms))
	placeholders = placeholders[:len(placeholders)-1]

	// COALESCE to '' makes a missing marker compare below every timestamp,
	// so a never-visited room counts all foreign messages as unread.
	query := `
		SELECT m.channel_id, COUNT(*)
		FROM messages m
		LEFT JOIN read_markers r ON r.channel_id = m.channel_id AND r.user_id = ?
		WHERE m.channel_id IN (` + placeholders + `)
		  AND m.deleted_at IS NULL
		  AND m.user_id != ?
		  AND m.created_at > COALESCE(r.last_read_at, '')
		GROUP BY m.channel_id`

	args := make([]any, 0, len(rooms)+2)
	args = append(args, userID)
	for _, room := range rooms {
		args = append(args, room)
	}
	args = append(args, userID)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count room unreads: %w", err)
	}
	defer rows.Close()

	var unreads []RoomUnread
	for rows.Next() {
		var u RoomUnread
		if err := rows.Scan(&u.Room, &u.Count); err != nil {
			return nil, fmt.Errorf("failed to scan room unread row: %w", err)
		}
		unreads = append(unreads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room unread rows: %w", err)
	}
	if unreads == nil {
		unreads = []RoomUnread{}
	}
	return unreads, nil
}

func (r *sqliteReadMarkerRepo) ConversationUnreadCounts(ctx context.Context, userID string) ([]ConversationUnread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.type, COUNT(*)
		FROM messages m
		INNER JOIN conversations c ON c.id = m.channel_id
		INNER JOIN conversation_participants p
			ON p.conversation_id = c.id AND p.user_id = ?
		LEFT JOIN read_markers r ON r.channel_id = m.channel_id AND r.user_id = ?
		WHERE m.deleted_at IS NULL
		  AND m.user_id != ?
		  AND m.created_at > COALESCE(r.last_read_at, '')
		GROUP BY c.type`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count conversation unreads: %w", err)
	}
	defer rows.Close()

	var unreads []ConversationUnread
	for rows.Next() {
		var u ConversationUnread
		if err := rows.Scan(&u.Type, &u.Count); err != nil {
			return nil, fmt.Errorf("failed to scan conversation unread row: %w", err)
		}
		unreads = append(unreads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation unread rows: %w", err)
	}
	if unreads == nil {
		unreads = []ConversationUnread{}
	}
	return unreads, nil
}
