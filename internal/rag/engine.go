package rag

import (
	"context"
)

// Engine is the RAG collaborator consumed by the HTTP layer.
//
// Sources are opaque citation values owned by the engine. Callers pass them
// through unmodified and in order.
type Engine interface {
	// Query answers question within the conversation identified by sessionID.
	Query(ctx context.Context, question, sessionID string) (answer string, sources []any, err error)

	// CourseAnalytics returns the course count and titles.
	CourseAnalytics(ctx context.Context) (CourseAnalytics, error)

	// Sessions returns the session manager used for conversation continuity.
	Sessions() SessionManager
}

// SessionManager owns session identity and conversation history.
type SessionManager interface {
	// CreateSession allocates a fresh session ID.
	CreateSession(ctx context.Context) (string, error)

	// ConversationHistory returns the formatted history for a session.
	// ok is false when the session has no recorded history.
	ConversationHistory(ctx context.Context, sessionID string) (history string, ok bool, err error)

	// AddExchange records one question/answer pair.
	AddExchange(ctx context.Context, sessionID, question, answer string) error
}

// Backend performs retrieval and answer generation for the System.
// This interface is implemented by the gRPC client.
type Backend interface {
	// Answer generates an answer and its sources, given prior conversation history.
	Answer(ctx context.Context, question, history string) (answer string, sources []any, err error)

	// CourseAnalytics returns course statistics from the engine.
	CourseAnalytics(ctx context.Context) (CourseAnalytics, error)

	// Health returns nil when the engine is serving.
	Health(ctx context.Context) error

	// Close releases resources
	Close()
}

// Ensure implementations satisfy their interfaces.
var (
	_ Engine         = (*System)(nil)
	_ SessionManager = (*StoreSessionManager)(nil)
	_ Backend        = (*GrpcClient)(nil)
)
