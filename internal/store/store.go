// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/course-rag/internal/domain"
)

// Repository defines the interface for persisting conversation sessions.
type Repository interface {
	// CreateSession inserts a new, empty session.
	CreateSession(ctx context.Context, sessionID string, now time.Time) error

	// GetSession retrieves a session by ID. Returns nil, nil when it does not exist.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// AppendMessages stores msgs for the session, creating the session if needed,
	// and keeps only the newest keep messages when keep > 0.
	AppendMessages(ctx context.Context, sessionID string, msgs []domain.Message, keep int) error

	// ListMessages returns the session's messages oldest first.
	ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error)

	// DeleteIdleSessions removes sessions (and their messages) idle for longer than ttl.
	DeleteIdleSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
