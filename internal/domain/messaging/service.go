package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medichannel/medichannel/internal/platform/events"
)

var ErrInvalidInput = errors.New("invalid input")

const maxBodyLength = 4000

// Service implements messaging business logic.
type Service struct {
	repo      Repo
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewService(repo Repo, publisher events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With().Str("component", "messaging").Logger(),
	}
}

// Send stores a message and notifies the recipient's feed best-effort.
func (s *Service) Send(ctx context.Context, senderID uuid.UUID, senderRole string, req SendRequest) (*Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", ErrInvalidInput)
	}
	if len(body) > maxBodyLength {
		return nil, fmt.Errorf("%w: message body exceeds %d characters", ErrInvalidInput, maxBodyLength)
	}
	if req.RecipientID == uuid.Nil {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if req.RecipientID == senderID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrInvalidInput)
	}

	m := &Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		SenderRole:  senderRole,
		RecipientID: req.RecipientID,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		topic := "inbox:" + m.RecipientID.String()
		ev, err := events.NewEvent("message.received", topic, m)
		if err == nil {
			err = s.publisher.Publish(ctx, ev)
		}
		if err != nil {
			s.logger.Error().Err(err).Str("topic", topic).Msg("message event delivery failed")
		}
	}
	return m, nil
}

// Conversation lists the messages between the actor and another party,
// newest first.
func (s *Service) Conversation(ctx context.Context, actorID, otherID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	return s.repo.Conversation(ctx, actorID, otherID, limit, offset)
}

// MarkRead stamps all unread messages from the other party to the actor.
func (s *Service) MarkRead(ctx context.Context, actorID, otherID uuid.UUID) (int, error) {
	return s.repo.MarkRead(ctx, actorID, otherID)
}

// UnreadCount reports how many messages await the actor.
func (s *Service) UnreadCount(ctx context.Context, actorID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, actorID)
}
