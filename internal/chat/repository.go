// AngelaMos | 2026
// repository.go

package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ltl-studio/backend/internal/core"
)

type Repository interface {
	// ResolveConversation returns the conversation for pair, creating it
	// with last activity at now when absent. Safe under concurrent callers.
	ResolveConversation(
		ctx context.Context,
		pair ParticipantPair,
		now time.Time,
	) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, participant string) ([]Conversation, error)
	TouchConversation(ctx context.Context, id string, at time.Time) error
	CreateMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	MarkAdminMessagesRead(ctx context.Context, conversationID string) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const conversationColumns = `id, participant_key, participant_a, participant_b,
		       last_message_at, created_at`

// The no-op DO UPDATE makes RETURNING yield the existing row on conflict;
// the unique participant_key turns racing first messages into one row.
func (r *repository) ResolveConversation(
	ctx context.Context,
	pair ParticipantPair,
	now time.Time,
) (*Conversation, error) {
	query := `
		INSERT INTO conversations (
			id, participant_key, participant_a, participant_b,
			last_message_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (participant_key)
		DO UPDATE SET participant_key = EXCLUDED.participant_key
		RETURNING ` + conversationColumns

	var conv Conversation
	err := r.db.GetContext(ctx, &conv, query,
		newID(),
		pair.Key(),
		pair.First(),
		pair.Second(),
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}

	return &conv, nil
}

func (r *repository) GetConversation(
	ctx context.Context,
	id string,
) (*Conversation, error) {
	if !isID(id) {
		return nil, fmt.Errorf("get conversation: %w", core.ErrNotFound)
	}

	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	var conv Conversation
	err := r.db.GetContext(ctx, &conv, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get conversation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	return &conv, nil
}

func (r *repository) ListConversations(
	ctx context.Context,
	participant string,
) ([]Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_message_at DESC, created_at DESC`

	convs := []Conversation{}
	if err := r.db.SelectContext(ctx, &convs, query, participant); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	return convs, nil
}

func (r *repository) TouchConversation(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	query := `
		UPDATE conversations
		SET last_message_at = GREATEST(last_message_at, $2)
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("touch conversation: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CreateMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq`

	err := r.db.GetContext(ctx, &msg.Seq, query,
		msg.ID,
		msg.ConversationID,
		msg.Sender,
		msg.Content,
		msg.Read,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

func (r *repository) ListMessages(
	ctx context.Context,
	conversationID string,
) ([]Message, error) {
	msgs := []Message{}
	if !isID(conversationID) {
		return msgs, nil
	}

	query := `
		SELECT id, seq, conversation_id, sender, content, read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC`

	if err := r.db.SelectContext(ctx, &msgs, query, conversationID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return msgs, nil
}

func (r *repository) MarkAdminMessagesRead(
	ctx context.Context,
	conversationID string,
) (int64, error) {
	if !isID(conversationID) {
		return 0, nil
	}

	query := `
		UPDATE messages
		SET read = TRUE
		WHERE conversation_id = $1 AND sender = $2 AND read = FALSE`

	result, err := r.db.ExecContext(ctx, query, conversationID, SenderAdmin)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}

	return rows, nil
}
