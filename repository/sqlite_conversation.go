package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sandwichproject/platform/database"
	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg"
)

type sqliteConversationRepo struct {
	db *sql.DB
}

// NewSQLiteConversationRepo returns the SQLite-backed
// ConversationRepository. It takes the concrete *sql.DB because Create
// runs inside a transaction.
func NewSQLiteConversationRepo(db *sql.DB) ConversationRepository {
	return &sqliteConversationRepo{db: db}
}

func (r *sqliteConversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	conv.ID = uuid.NewString()
	conv.CreatedAt = time.Now().UTC()
	stamp := formatTime(conv.CreatedAt)

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversations (id, type, name, created_by, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			conv.ID, conv.Type, conv.Name, conv.CreatedBy, stamp,
		); err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}

		for _, userID := range conv.Participants {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO conversation_participants (conversation_id, user_id, joined_at)
				VALUES (?, ?, ?)`,
				conv.ID, userID, stamp,
			); err != nil {
				return fmt.Errorf("failed to add participant %s: %w", userID, err)
			}
		}
		return nil
	})
}

func (r *sqliteConversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	var createdAt string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, type, name, created_by, created_at
		FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.Type, &conv.Name, &conv.CreatedBy, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	conv.CreatedAt = t
	return &conv, nil
}

func (r *sqliteConversationRepo) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.type, c.name, c.created_by, c.created_at
		FROM conversations c
		INNER JOIN conversation_participants p
			ON p.conversation_id = c.id AND p.user_id = ?
		ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		var createdAt string
		if err := rows.Scan(&conv.ID, &conv.Type, &conv.Name, &conv.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		conv.CreatedAt = t
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	return convs, nil
}

func (r *sqliteConversationRepo) Participants(ctx context.Context, conversationID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM conversation_participants WHERE conversation_id = ?`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return ids, nil
}

func (r *sqliteConversationRepo) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM conversation_participants
		WHERE conversation_id = ? AND user_id = ?`,
		conversationID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return n > 0, nil
}

func (r *sqliteConversationRepo) IDsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT conversation_id FROM conversation_participants WHERE user_id = ?`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation id rows: %w", err)
	}
	return ids, nil
}
