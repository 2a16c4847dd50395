package messaging

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrMessageNotFound = errors.New("message not found")

// Repo is the persistence contract for messages.
type Repo interface {
	Create(ctx context.Context, m *Message) error
	Conversation(ctx context.Context, a, b uuid.UUID, limit, offset int) ([]*Message, int, error)
	MarkRead(ctx context.Context, recipientID, senderID uuid.UUID) (int, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)
}
