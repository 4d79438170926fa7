package domain

import (
	"fmt"
	"strings"
	"time"
)

// MessageRole identifies the author of a chat message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// ChatMessage is one turn of a conversation. Messages are immutable once
// created and ordered by creation time, ties broken by insertion order.
type ChatMessage struct {
	ID        int64
	SessionID string
	Role      MessageRole
	Content   string
	CreatedAt time.Time
}

// NewChatMessage creates a ChatMessage instance
func NewChatMessage(sessionID string, role MessageRole, content string) *ChatMessage {
	return &ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// ValidateChatMessage validates a ChatMessage instance
func ValidateChatMessage(m *ChatMessage) error {
	if m == nil {
		return fmt.Errorf("chat message cannot be nil")
	}

	if m.SessionID == "" {
		return fmt.Errorf("chat message session ID is required")
	}

	if !isValidMessageRole(m.Role) {
		return ErrInvalidMessageRole
	}

	if strings.TrimSpace(m.Content) == "" {
		return ErrEmptyMessage
	}

	return nil
}

// isValidMessageRole checks if a MessageRole is valid
func isValidMessageRole(r MessageRole) bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant:
		return true
	}
	return false
}
