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

type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo returns the SQLite-backed MessageRepository.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) Create(ctx context.Context, message *models.Message) error {
	message.ID = uuid.NewString()
	message.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, channel_id, user_id, sender_name, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID, message.ChannelID, message.UserID, message.SenderName,
		message.Content, formatTime(message.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, channel_id, user_id, sender_name, content, created_at
		FROM messages
		WHERE id = ? AND deleted_at IS NULL`, id)

	msg, err := scanMessage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}
	return msg, nil
}

func (r *sqliteMessageRepo) ListByChannel(ctx context.Context, channelID string, since time.Time, limit int) ([]models.Message, error) {
	query := `
		SELECT id, channel_id, user_id, sender_name, content, created_at
		FROM messages
		WHERE channel_id = ? AND deleted_at IS NULL`
	args := []any{channelID}

	if !since.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, formatTime(since))
	}

	query += ` ORDER BY created_at ASC, id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	// nil serializes to JSON null; clients expect an array.
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

func (r *sqliteMessageRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func scanMessage(scan func(dest ...any) error) (*models.Message, error) {
	var msg models.Message
	var createdAt string

	if err := scan(
		&msg.ID, &msg.ChannelID, &msg.UserID, &msg.SenderName, &msg.Content, &createdAt,
	); err != nil {
		return nil, err
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	msg.CreatedAt = t

	return &msg, nil
}
