package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is a single entry in a session's history.
// Messages are immutable once appended.
type Message struct {
	ID        string            `json:"id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	AgentName string            `json:"agent_name,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewMessage creates a message with a fresh ID and timestamp.
func NewMessage(role Role, content, agentName string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		AgentName: agentName,
		Timestamp: time.Now(),
	}
}

// Session is one conversation lineage for a user. The orchestrator owns
// sessions for their lifetime; history is append-only and a session is
// only ever torn down by an explicit reset.
type Session struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	messages []Message
}

// NewSession creates an empty session for a user.
func NewSession(userID string) *Session {
	return &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}

// Append adds a message to the session history.
func (s *Session) Append(msg Message) {
	s.messages = append(s.messages, msg)
}

// History returns a copy of the message history in insertion order.
// Callers cannot mutate the session's own slice through the result.
func (s *Session) History() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the session.
func (s *Session) Len() int {
	return len(s.messages)
}

// Recent returns up to n most recent messages in insertion order.
func (s *Session) Recent(n int) []Message {
	if n <= 0 || len(s.messages) == 0 {
		return nil
	}
	if n > len(s.messages) {
		n = len(s.messages)
	}
	out := make([]Message, n)
	copy(out, s.messages[len(s.messages)-n:])
	return out
}
