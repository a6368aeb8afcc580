package rag

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/course-rag/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionStore(t *testing.T) store.Repository {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCreateSessionIDsAreUnique(t *testing.T) {
	mgr := NewStoreSessionManager(newSessionStore(t), 2)
	ctx := context.Background()

	a, err := mgr.CreateSession(ctx)
	require.NoError(t, err)
	b, err := mgr.CreateSession(ctx)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, sessionIDPrefix))
	assert.NotEqual(t, a, b)
}

func TestConversationHistoryAbsentForNewSession(t *testing.T) {
	mgr := NewStoreSessionManager(newSessionStore(t), 2)
	ctx := context.Background()

	id, err := mgr.CreateSession(ctx)
	require.NoError(t, err)

	history, ok, err := mgr.ConversationHistory(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, history)
}

func TestConversationHistoryUnknownSession(t *testing.T) {
	repo := newSessionStore(t)
	mgr := NewStoreSessionManager(repo, 2)
	ctx := context.Background()

	history, ok, err := mgr.ConversationHistory(ctx, "session_unknown")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, history)

	session, err := repo.GetSession(ctx, "session_unknown")
	require.NoError(t, err)
	assert.Nil(t, session, "reading history must not create the session")
}

func TestConversationHistoryClosedStore(t *testing.T) {
	repo := newSessionStore(t)
	mgr := NewStoreSessionManager(repo, 2)
	require.NoError(t, repo.Close())

	_, ok, err := mgr.ConversationHistory(context.Background(), "session_x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get session")
	assert.False(t, ok)
}

func TestConversationHistoryKeepsLastExchanges(t *testing.T) {
	mgr := NewStoreSessionManager(newSessionStore(t), 2)
	ctx := context.Background()

	require.NoError(t, mgr.AddExchange(ctx, "session_x", "first?", "one"))
	require.NoError(t, mgr.AddExchange(ctx, "session_x", "second?", "two"))
	require.NoError(t, mgr.AddExchange(ctx, "session_x", "third?", "three"))

	history, ok, err := mgr.ConversationHistory(ctx, "session_x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "User: second?\nAssistant: two\nUser: third?\nAssistant: three", history)
}

func TestAddExchangeWithHistoryDisabled(t *testing.T) {
	repo := newSessionStore(t)
	mgr := NewStoreSessionManager(repo, 0)
	ctx := context.Background()

	require.NoError(t, mgr.AddExchange(ctx, "session_y", "q", "a"))

	_, ok, err := mgr.ConversationHistory(ctx, "session_y")
	require.NoError(t, err)
	assert.False(t, ok)

	session, err := repo.GetSession(ctx, "session_y")
	require.NoError(t, err)
	assert.NotNil(t, session)
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "User", roleLabel("user"))
	assert.Equal(t, "Assistant", roleLabel("assistant"))
	assert.Equal(t, "System", roleLabel("system"))
	assert.Equal(t, "", roleLabel(""))
}
