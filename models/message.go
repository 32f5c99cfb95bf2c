package models

import (
	"encoding/json"
	"time"
)

// Content limits enforced by the compose inputs
const (
	MaxMessageContent = 500
	MaxPostContent    = 400
)

// Message represents a chat message. Messages are never edited after creation.
type Message struct {
	ID        string    `json:"_id" validate:"required"`
	Sender    User      `json:"sender"`
	Content   string    `json:"content" validate:"max=500"`
	ChatID    string    `json:"chat,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is a standalone feed post or a reply to one
type Post struct {
	ID        string    `json:"_id" validate:"required"`
	PostedBy  User      `json:"postedBy"`
	Content   string    `json:"content" validate:"max=400"`
	ReplyTo   string    `json:"replyTo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateMessageRequest is the body of POST /api/messages
type CreateMessageRequest struct {
	Content string `json:"content" validate:"required,max=500"`
	ChatID  string `json:"chatId" validate:"required"`
}

// CreatePostRequest is the body of POST /api/posts
type CreatePostRequest struct {
	Content string `json:"content" validate:"required,max=400"`
	ReplyTo string `json:"replyTo,omitempty"`
}

// TypingSignal is an ephemeral "someone is typing" event. It is never stored.
type TypingSignal struct {
	ChatID   string    `json:"chatId,omitempty"`
	SenderID string    `json:"userId,omitempty"`
	At       time.Time `json:"-"`
}

// Frame types carried over the event channel
const (
	FrameJoinRoom = "join room"
	FrameTyping   = "typing"
	FrameMessage  = "message"
)

// Frame is the format for real-time events
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewFrame marshals payload into a frame of the given type. A nil payload
// produces a frame without one.
func NewFrame(frameType string, payload any) (Frame, error) {
	f := Frame{Type: frameType}
	if payload == nil {
		return f, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	f.Payload = b
	return f, nil
}
