package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepoPG implements Repo backed by PostgreSQL.
type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) Create(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO message (id, sender_id, sender_role, recipient_id, body, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.SenderID, m.SenderRole, m.RecipientID, m.Body, m.ReadAt, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *RepoPG) Conversation(ctx context.Context, a, b uuid.UUID, limit, offset int) ([]*Message, int, error) {
	where := `WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)`

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM message "+where, a, b).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversation: %w", err)
	}

	query := `
		SELECT id, sender_id, sender_role, recipient_id, body, read_at, created_at
		FROM message ` + where + `
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, a, b, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderRole, &m.RecipientID,
			&m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, total, rows.Err()
}

// MarkRead stamps every unread message from sender to recipient and returns
// how many were affected.
func (r *RepoPG) MarkRead(ctx context.Context, recipientID, senderID uuid.UUID) (int, error) {
	query := `
		UPDATE message SET read_at = NOW()
		WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, recipientID, senderID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *RepoPG) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM message WHERE recipient_id = $1 AND read_at IS NULL`,
		recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}
