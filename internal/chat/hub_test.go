// AngelaMos | 2026
// hub_test.go

package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversOncePerSubscriber(t *testing.T) {
	hub := NewHub(testLogger())
	sub := &recordingSubscriber{}

	hub.Subscribe(sub, ConversationTopic("c1"), ParticipantTopic(AdminIdentity))

	err := hub.Publish(context.Background(), Event{
		Topics:  []string{ConversationTopic("c1"), ParticipantTopic(AdminIdentity)},
		Message: MessageResponse{ID: "m1", ConversationID: "c1"},
	})
	require.NoError(t, err)

	assert.Len(t, sub.messages(t), 1)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(testLogger())
	sub := &recordingSubscriber{}

	hub.Subscribe(sub, ConversationTopic("c1"), ConversationTopic("c2"))
	hub.Unsubscribe(sub, ConversationTopic("c1"))

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, Event{
		Topics:  []string{ConversationTopic("c1")},
		Message: MessageResponse{ID: "m1"},
	}))
	require.NoError(t, hub.Publish(ctx, Event{
		Topics:  []string{ConversationTopic("c2")},
		Message: MessageResponse{ID: "m2"},
	}))

	got := sub.messages(t)
	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].ID)
	assert.Equal(t, 1, hub.TopicCount())
}

func TestHubRemoveClearsEveryTopic(t *testing.T) {
	hub := NewHub(testLogger())
	sub := &recordingSubscriber{}

	hub.Subscribe(sub, ConversationTopic("c1"), ParticipantTopic("a@example.com"))
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Remove(sub)
	hub.Remove(sub)

	assert.Equal(t, 0, hub.SubscriberCount())
	assert.Equal(t, 0, hub.TopicCount())
}

func TestParticipantTopicNormalizes(t *testing.T) {
	assert.Equal(t, ParticipantTopic("a@example.com"), ParticipantTopic(" A@Example.com"))
	assert.Equal(t, "participant:admin", ParticipantTopic(AdminIdentity))
}

func TestParticipantPairIsOrderIndependent(t *testing.T) {
	p1 := NewParticipantPair("zed@example.com", AdminIdentity)
	p2 := NewParticipantPair(AdminIdentity, "Zed@example.com")

	assert.Equal(t, p1.Key(), p2.Key())
	assert.Equal(t, AdminIdentity, p1.First())
}

func TestHubCloseAll(t *testing.T) {
	hub := NewHub(testLogger())
	a := &recordingSubscriber{}
	b := &recordingSubscriber{}
	hub.Subscribe(a, ConversationTopic("c1"))
	hub.Subscribe(b, ParticipantTopic(AdminIdentity))

	hub.CloseAll()

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Equal(t, 0, hub.SubscriberCount())
}
