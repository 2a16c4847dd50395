// Package messaging implements direct messages between patients and doctors.
package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Message is one direct message. Read is set when the recipient marks the
// conversation as seen; messages are never edited or deleted.
type Message struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    uuid.UUID  `json:"sender_id"`
	SenderRole  string     `json:"sender_role"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SendRequest is the payload for sending a message.
type SendRequest struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Body        string    `json:"body"`
}
