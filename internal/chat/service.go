// AngelaMos | 2026
// service.go

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ltl-studio/backend/internal/core"
)

var (
	ErrEmptyContent      = errors.New("message content is empty")
	ErrMissingRecipient  = errors.New("conversationId or userEmail is required")
	ErrConversationOwner = errors.New("userEmail does not belong to conversation")
)

// Publisher hands a persisted message to whatever distributes it to live
// sockets. *Hub delivers in process; *RedisRelay crosses instances.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Service struct {
	repo      Repository
	hub       *Hub
	publisher Publisher
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the engine. A nil publisher means local fan-out
// through hub.
func NewService(
	repo Repository,
	hub *Hub,
	publisher Publisher,
	logger *slog.Logger,
) *Service {
	if publisher == nil {
		publisher = hub
	}
	return &Service{
		repo:      repo,
		hub:       hub,
		publisher: publisher,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Hub() *Hub {
	return s.hub
}

func (s *Service) ListConversations(
	ctx context.Context,
	participant string,
) ([]Conversation, error) {
	return s.repo.ListConversations(ctx, normalizeIdentity(participant))
}

// ListMessages returns the history of a conversation, oldest first, with
// the client email filled in. Unknown ids yield an empty history.
func (s *Service) ListMessages(
	ctx context.Context,
	conversationID string,
) ([]MessageResponse, error) {
	msgs, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	var userEmail string
	if len(msgs) > 0 {
		conv, err := s.repo.GetConversation(ctx, conversationID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		if conv != nil {
			userEmail = conv.UserEmail()
		}
	}

	return ToMessageResponseList(msgs, userEmail), nil
}

// MarkRead returns how many admin messages flipped to read. Repeating it
// on the same conversation flips nothing.
func (s *Service) MarkRead(ctx context.Context, conversationID string) (int64, error) {
	n, err := s.repo.MarkAdminMessagesRead(ctx, conversationID)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("messages marked read",
		"conversation_id", conversationID,
		"count", n,
	)
	return n, nil
}

func (s *Service) Send(ctx context.Context, req SendRequest) (*MessageResponse, error) {
	return s.SendFrom(ctx, req, nil)
}

// SendFrom persists and publishes a message. When from is non-nil it is
// subscribed to the conversation before publishing so the sender sees
// its own message.
func (s *Service) SendFrom(
	ctx context.Context,
	req SendRequest,
	from Subscriber,
) (*MessageResponse, error) {
	ctx, span := core.StartSpan(ctx, "chat.send",
		attribute.String("chat.sender", req.Sender),
	)
	defer span.End()

	resp, err := s.send(ctx, req, from)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("chat.conversation_id", resp.ConversationID))
	return resp, nil
}

func (s *Service) send(
	ctx context.Context,
	req SendRequest,
	from Subscriber,
) (*MessageResponse, error) {
	req.Content = strings.TrimSpace(req.Content)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	req.ConversationID = strings.TrimSpace(req.ConversationID)

	if req.Content == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidInput, ErrEmptyContent)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidInput, core.FormatValidationError(err))
	}

	userEmail, err := s.resolveUserEmail(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	conv, err := s.repo.ResolveConversation(ctx, UserPair(userEmail), now)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		ID:             newID(),
		ConversationID: conv.ID,
		Sender:         req.Sender,
		Content:        req.Content,
		Read:           false,
		CreatedAt:      now,
	}

	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.repo.TouchConversation(ctx, conv.ID, now); err != nil {
		return nil, err
	}

	resp := ToMessageResponse(msg, conv.UserEmail())

	if from != nil {
		s.hub.Subscribe(from, ConversationTopic(conv.ID))
	}

	ev := Event{Topics: TopicsFor(conv), Message: resp}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("chat publish failed",
			"conversation_id", conv.ID,
			"error", err,
		)
	}

	return &resp, nil
}

func (s *Service) resolveUserEmail(ctx context.Context, req SendRequest) (string, error) {
	if req.ConversationID == "" {
		if req.UserEmail == "" {
			return "", fmt.Errorf("%w: %w", core.ErrInvalidInput, ErrMissingRecipient)
		}
		return core.NormalizeEmail(req.UserEmail), nil
	}

	conv, err := s.repo.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return "", err
	}

	owner := conv.UserEmail()
	if req.UserEmail != "" && core.NormalizeEmail(req.UserEmail) != owner {
		return "", fmt.Errorf("%w: %w", core.ErrInvalidInput, ErrConversationOwner)
	}

	return owner, nil
}

func newID() string {
	return uuid.New().String()
}

func isID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
