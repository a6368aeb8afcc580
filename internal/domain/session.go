// Package domain contains core domain types for the course RAG server.
package domain

import (
	"time"
)

// Message roles stored in a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is a conversation-continuity token and its bookkeeping.
type Session struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Message is a single turn in a session's history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Exchange builds the user/assistant message pair for one question and answer.
func Exchange(question, answer string, at time.Time) []Message {
	return []Message{
		{Role: RoleUser, Content: question, CreatedAt: at},
		{Role: RoleAssistant, Content: answer, CreatedAt: at},
	}
}
