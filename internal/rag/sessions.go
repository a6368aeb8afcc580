package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/course-rag/internal/domain"
	"github.com/ashureev/course-rag/internal/store"
	"github.com/google/uuid"
)

const sessionIDPrefix = "session_"

// StoreSessionManager keeps conversation history in a store.Repository.
type StoreSessionManager struct {
	repo       store.Repository
	maxHistory int
	now        func() time.Time
}

// NewStoreSessionManager creates a session manager that retains the last
// maxHistory question/answer exchanges per session.
func NewStoreSessionManager(repo store.Repository, maxHistory int) *StoreSessionManager {
	if maxHistory < 0 {
		maxHistory = 0
	}
	return &StoreSessionManager{
		repo:       repo,
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

// CreateSession allocates and persists a new session ID.
func (m *StoreSessionManager) CreateSession(ctx context.Context) (string, error) {
	id := sessionIDPrefix + uuid.NewString()
	if err := m.repo.CreateSession(ctx, id, m.now()); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// ConversationHistory formats the session's retained messages as
// "User: ..." / "Assistant: ..." lines. Unknown sessions have no history.
func (m *StoreSessionManager) ConversationHistory(ctx context.Context, sessionID string) (string, bool, error) {
	session, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return "", false, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return "", false, nil
	}

	msgs, err := m.repo.ListMessages(ctx, sessionID)
	if err != nil {
		return "", false, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return "", false, nil
	}

	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, roleLabel(msg.Role)+": "+msg.Content)
	}
	return strings.Join(lines, "\n"), true, nil
}

// AddExchange records a question/answer pair. Unknown session IDs are
// created on first use. With maxHistory 0 only the session is touched.
func (m *StoreSessionManager) AddExchange(ctx context.Context, sessionID, question, answer string) error {
	var msgs []domain.Message
	if m.maxHistory > 0 {
		msgs = domain.Exchange(question, answer, m.now())
	}
	if err := m.repo.AppendMessages(ctx, sessionID, msgs, m.maxHistory*2); err != nil {
		return fmt.Errorf("append exchange: %w", err)
	}
	return nil
}

func roleLabel(role string) string {
	switch role {
	case domain.RoleUser:
		return "User"
	case domain.RoleAssistant:
		return "Assistant"
	}
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
