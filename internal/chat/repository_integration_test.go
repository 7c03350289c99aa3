// AngelaMos | 2026
// repository_integration_test.go

//go:build integration

package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltl-studio/backend/internal/core"
	"github.com/ltl-studio/backend/internal/testdb"
)

func TestRepositoryResolveConversationIsAtomic(t *testing.T) {
	db := testdb.New(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()
	now := time.Now().UTC()

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := repo.ResolveConversation(ctx, UserPair("race@example.com"), now)
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	convs, err := repo.ListConversations(ctx, AdminIdentity)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestRepositoryMessagesRoundTrip(t *testing.T) {
	db := testdb.New(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	conv, err := repo.ResolveConversation(ctx, UserPair("pat@example.com"), base)
	require.NoError(t, err)

	for i, sender := range []string{SenderUser, SenderAdmin, SenderAdmin} {
		msg := &Message{
			ID:             newID(),
			ConversationID: conv.ID,
			Sender:         sender,
			Content:        sender,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.CreateMessage(ctx, msg))
		assert.Positive(t, msg.Seq)
		require.NoError(t, repo.TouchConversation(ctx, conv.ID, msg.CreatedAt))
	}

	msgs, err := repo.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, SenderUser, msgs[0].Sender)

	n, err := repo.MarkAdminMessagesRead(ctx, conv.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.MarkAdminMessagesRead(ctx, conv.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := repo.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, got.LastMessageAt.Equal(base.Add(2*time.Minute)))

	_, err = repo.GetConversation(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)

	empty, err := repo.ListMessages(ctx, newID())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
