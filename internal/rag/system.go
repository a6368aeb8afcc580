package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// System answers course questions by combining a Backend with session history.
type System struct {
	backend  Backend
	sessions SessionManager
	logger   *slog.Logger
}

// NewSystem creates a new System.
func NewSystem(backend Backend, sessions SessionManager, logger *slog.Logger) (*System, error) {
	if backend == nil {
		return nil, errors.New("rag: backend is required")
	}
	if sessions == nil {
		return nil, errors.New("rag: session manager is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &System{backend: backend, sessions: sessions, logger: logger}, nil
}

// Query answers question using the session's history and records the exchange.
// A failed answer records nothing.
func (s *System) Query(ctx context.Context, question, sessionID string) (string, []any, error) {
	history := ""
	if sessionID != "" {
		h, ok, err := s.sessions.ConversationHistory(ctx, sessionID)
		if err != nil {
			return "", nil, fmt.Errorf("load conversation history: %w", err)
		}
		if ok {
			history = h
		}
	}

	answer, sources, err := s.backend.Answer(ctx, question, history)
	if err != nil {
		return "", nil, fmt.Errorf("generate answer: %w", err)
	}
	if sources == nil {
		sources = []any{}
	}

	if sessionID != "" {
		if err := s.sessions.AddExchange(ctx, sessionID, question, answer); err != nil {
			s.logger.Warn("failed to record exchange", "session_id", sessionID, "error", err)
		}
	}

	return answer, sources, nil
}

// CourseAnalytics returns course statistics from the backend.
func (s *System) CourseAnalytics(ctx context.Context) (CourseAnalytics, error) {
	stats, err := s.backend.CourseAnalytics(ctx)
	if err != nil {
		return CourseAnalytics{}, fmt.Errorf("course analytics: %w", err)
	}
	return stats.Normalized(), nil
}

// Sessions returns the session manager.
func (s *System) Sessions() SessionManager {
	return s.sessions
}

// Health reports whether the backend is serving.
func (s *System) Health(ctx context.Context) error {
	return s.backend.Health(ctx)
}

// Close releases resources.
func (s *System) Close() {
	if s.backend != nil {
		s.backend.Close()
	}
}
