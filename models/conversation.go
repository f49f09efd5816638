package models

import (
	"fmt"
	"strings"
	"time"
)

// Conversation types. Direct conversations count toward the "direct"
// unread bucket; every other type counts toward "groups".
const (
	ConversationDirect    = "direct"
	ConversationGroup     = "group"
	ConversationHost      = "host"
	ConversationDriver    = "driver"
	ConversationRecipient = "recipient"
)

var validConversationTypes = map[string]bool{
	ConversationDirect:    true,
	ConversationGroup:     true,
	ConversationHost:      true,
	ConversationDriver:    true,
	ConversationRecipient: true,
}

// Conversation is a dynamically created message scope with an explicit
// participant list. The participant set is fixed at creation; there is no
// add/remove flow.
type Conversation struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Name         string    `json:"name"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	Participants []string  `json:"participants,omitempty"`
}

// CreateConversationRequest is the payload for creating a conversation.
// Participants lists the other members; the creator is always included.
type CreateConversationRequest struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

// Validate checks the conversation payload.
func (r *CreateConversationRequest) Validate() error {
	if !validConversationTypes[r.Type] {
		return fmt.Errorf("invalid conversation type %q", r.Type)
	}
	r.Name = strings.TrimSpace(r.Name)
	if len(r.Participants) == 0 {
		return fmt.Errorf("at least one participant is required")
	}
	if r.Type == ConversationDirect && len(r.Participants) != 1 {
		return fmt.Errorf("a direct conversation has exactly one other participant")
	}
	return nil
}
