package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Message is one posted chat message. Messages are immutable after
// creation except for soft deletion; a deleted message is excluded from
// listings and unread counts everywhere.
type Message struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	UserID     string    `json:"user_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateMessageRequest is the payload for posting a message.
type CreateMessageRequest struct {
	Committee string `json:"committee"`
	Content   string `json:"content"`
}

// Validate trims and checks the message content.
func (r *CreateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	n := utf8.RuneCountInString(r.Content)
	if n < 1 {
		return fmt.Errorf("message content is required")
	}
	if n > 2000 {
		return fmt.Errorf("message content must be at most 2000 characters")
	}
	return nil
}

// Preview returns a short excerpt of the content for notification frames
// and emails.
func (m *Message) Preview() string {
	const max = 120
	if utf8.RuneCountInString(m.Content) <= max {
		return m.Content
	}
	runes := []rune(m.Content)
	return string(runes[:max]) + "…"
}
