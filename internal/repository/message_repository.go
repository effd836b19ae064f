package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/liveauction/internal/models"
)

// MessageRepository persists the append-only message log.
type MessageRepository struct {
	q Queryable
}

// NewMessageRepository creates a message repository bound to q.
func NewMessageRepository(q Queryable) *MessageRepository {
	return &MessageRepository{q: q}
}

const messageColumns = `id, room_id, sender_name, sender_role, content, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.RoomID,
		&m.SenderName,
		&m.SenderRole,
		&m.Content,
		&m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	return &m, nil
}

// Create appends a message and backfills its created_at.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (id, room_id, sender_name, sender_role, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query,
		message.ID,
		message.RoomID,
		message.SenderName,
		message.SenderRole,
		message.Content,
	).Scan(&message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListByRoom returns the newest limit messages in chronological order.
func (r *MessageRepository) ListByRoom(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM (
			SELECT ` + messageColumns + `
			FROM messages
			WHERE room_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at, id
	`
	rows, err := r.q.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}
