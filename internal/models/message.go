package models

import (
	"errors"
	"fmt"
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of a trip's planning conversation.
type Message struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(tripID, userID, role, content string) *Message {
	return &Message{
		ID:        NewID(),
		TripID:    tripID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks required fields and the role.
func (m *Message) Validate() error {
	if m.TripID == "" {
		return errors.New("message trip ID is required")
	}
	if m.Content == "" {
		return errors.New("message content is required")
	}
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
		return nil
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
}
