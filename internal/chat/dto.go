// AngelaMos | 2026
// dto.go

package chat

import (
	"time"
)

type SendRequest struct {
	ConversationID string `json:"conversationId" validate:"omitempty,max=64"`
	UserEmail      string `json:"userEmail"      validate:"omitempty,email,max=255"`
	Sender         string `json:"sender"         validate:"required,oneof=user admin"`
	Content        string `json:"content"        validate:"required,max=4000"`
}

const (
	FrameMessage     = "message"
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
)

// InboundFrame is what a socket client writes. Type defaults to a chat
// message so clients that only send {userEmail, sender, content} work.
type InboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	UserEmail      string `json:"userEmail"`
	Sender         string `json:"sender"`
	Content        string `json:"content"`
}

func (f InboundFrame) SendRequest() SendRequest {
	return SendRequest{
		ConversationID: f.ConversationID,
		UserEmail:      f.UserEmail,
		Sender:         f.Sender,
		Content:        f.Content,
	}
}

type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	UserEmail      string    `json:"userEmail"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	Timestamp      time.Time `json:"timestamp"`
}

type ConversationResponse struct {
	ID            string    `json:"id"`
	Participants  []string  `json:"participants"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

type MarkReadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ToMessageResponse(m *Message, userEmail string) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		UserEmail:      userEmail,
		Sender:         m.Sender,
		Content:        m.Content,
		Read:           m.Read,
		Timestamp:      m.CreatedAt,
	}
}

func ToMessageResponseList(msgs []Message, userEmail string) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, ToMessageResponse(&msgs[i], userEmail))
	}
	return out
}

func ToConversationResponseList(convs []Conversation) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(convs))
	for i := range convs {
		out = append(out, ConversationResponse{
			ID:            convs[i].ID,
			Participants:  convs[i].Participants(),
			LastMessageAt: convs[i].LastMessageAt,
		})
	}
	return out
}
