// AngelaMos | 2026
// entity.go

package chat

import (
	"time"

	"github.com/ltl-studio/backend/internal/core"
)

// AdminIdentity is the fixed participant on the studio side of every
// conversation.
const AdminIdentity = "admin"

const (
	SenderUser  = "user"
	SenderAdmin = "admin"
)

type Conversation struct {
	ID             string    `db:"id"`
	ParticipantKey string    `db:"participant_key"`
	ParticipantA   string    `db:"participant_a"`
	ParticipantB   string    `db:"participant_b"`
	LastMessageAt  time.Time `db:"last_message_at"`
	CreatedAt      time.Time `db:"created_at"`
}

func (c *Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

// UserEmail returns the client side of the pair.
func (c *Conversation) UserEmail() string {
	if c.ParticipantA == AdminIdentity {
		return c.ParticipantB
	}
	return c.ParticipantA
}

type Message struct {
	ID             string    `db:"id"`
	Seq            int64     `db:"seq"`
	ConversationID string    `db:"conversation_id"`
	Sender         string    `db:"sender"`
	Content        string    `db:"content"`
	Read           bool      `db:"read"`
	CreatedAt      time.Time `db:"created_at"`
}

// ParticipantPair is the order independent natural key of a conversation.
type ParticipantPair struct {
	a, b string
}

func NewParticipantPair(x, y string) ParticipantPair {
	x, y = normalizeIdentity(x), normalizeIdentity(y)
	if y < x {
		x, y = y, x
	}
	return ParticipantPair{a: x, b: y}
}

// UserPair is the pair every conversation in this system uses: a client
// email and the admin identity.
func UserPair(userEmail string) ParticipantPair {
	return NewParticipantPair(userEmail, AdminIdentity)
}

func (p ParticipantPair) First() string  { return p.a }
func (p ParticipantPair) Second() string { return p.b }

func (p ParticipantPair) Key() string {
	return p.a + "|" + p.b
}

func normalizeIdentity(id string) string {
	if id == AdminIdentity {
		return id
	}
	return core.NormalizeEmail(id)
}
