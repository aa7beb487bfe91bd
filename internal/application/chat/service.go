// Package chat relays room chat and direct messages between live connections.
// Messages are not persisted; a connection that joins late never sees earlier
// traffic.
package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	appresence "huddle/internal/application/presence"
	domain "huddle/internal/domain/presence"
	"huddle/internal/shared/biztime"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/logger"
)

const (
	EventReceiveGlobalChat = "receive-global-chat"
	EventReceivePrivateDM  = "receive-private-dm"
)

// maxMessageLength bounds a single chat message after sanitization.
const maxMessageLength = 1000

// Message is the wire shape of a delivered chat message. The ID and
// timestamp are server-assigned.
type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Content    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
	Private    bool   `json:"private,omitempty"`
}

// Service validates, sanitizes and fans out chat messages. The sender must
// have a live session; its display name is taken from the session, never from
// the message payload.
type Service struct {
	store  domain.Store
	router appresence.EventRouter
	policy *bluemonday.Policy
	logger logger.Interface
}

func NewService(store domain.Store, router appresence.EventRouter, log logger.Interface) *Service {
	return &Service{
		store:  store,
		router: router,
		// strict policy: chat renders as text, all markup is stripped
		policy: bluemonday.StrictPolicy(),
		logger: log,
	}
}

// SendGlobal fans a message out to the sender's scope: the room for a
// room-scoped session, every connection otherwise. The sender receives its
// own message back as delivery confirmation.
func (s *Service) SendGlobal(ctx context.Context, connID, content string) error {
	sender, err := s.senderSession(ctx, connID)
	if err != nil {
		return err
	}

	msg, err := s.buildMessage(sender, content, false)
	if err != nil {
		return err
	}

	if sender.RoomCode != "" {
		s.router.ToRoom(sender.RoomCode, EventReceiveGlobalChat, msg)
	} else {
		s.router.ToAll(EventReceiveGlobalChat, msg)
	}
	return nil
}

// SendDirect delivers a message to one target connection and echoes it back
// to the sender.
func (s *Service) SendDirect(ctx context.Context, connID, targetConnID, content string) error {
	if targetConnID == "" {
		return errors.NewValidationError("target connection is required")
	}

	sender, err := s.senderSession(ctx, connID)
	if err != nil {
		return err
	}

	target, err := s.store.Get(ctx, targetConnID)
	if err != nil {
		return errors.NewStoreUnavailableError("failed to resolve target connection")
	}
	if target == nil {
		return errors.NewNotFoundError("target connection is not present")
	}

	msg, err := s.buildMessage(sender, content, true)
	if err != nil {
		return err
	}

	s.router.ToConnection(targetConnID, EventReceivePrivateDM, msg)
	s.router.ToConnection(connID, EventReceivePrivateDM, msg)
	return nil
}

func (s *Service) senderSession(ctx context.Context, connID string) (*domain.Session, error) {
	sender, err := s.store.Get(ctx, connID)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("failed to resolve sender session")
	}
	if sender == nil {
		return nil, errors.NewValidationError("connection has not joined")
	}
	return sender, nil
}

func (s *Service) buildMessage(sender *domain.Session, content string, private bool) (*Message, error) {
	content = strings.TrimSpace(s.policy.Sanitize(content))
	if content == "" {
		return nil, errors.NewValidationError("message is empty")
	}
	if len(content) > maxMessageLength {
		return nil, errors.NewValidationError("message is too long")
	}

	return &Message{
		ID:         uuid.NewString(),
		SenderID:   sender.ConnID,
		SenderName: sender.DisplayName,
		Content:    content,
		Timestamp:  biztime.NowUTC().UnixMilli(),
		Private:    private,
	}, nil
}
