package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/course-rag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestCreateAndGetSession(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.CreateSession(ctx, "session_1", now))

	got, err := repo.GetSession(ctx, "session_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "session_1", got.ID)
	assert.Equal(t, now.Unix(), got.LastSeenAt.Unix())

	missing, err := repo.GetSession(ctx, "session_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateSessionRejectsDuplicate(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateSession(ctx, "session_dup", time.Now()))
	assert.Error(t, repo.CreateSession(ctx, "session_dup", time.Now()))
}

func TestAppendMessagesCreatesUnknownSession(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.AppendMessages(ctx, "client_chosen", domain.Exchange("q", "a", time.Now()), 0))

	session, err := repo.GetSession(ctx, "client_chosen")
	require.NoError(t, err)
	require.NotNil(t, session)

	msgs, err := repo.ListMessages(ctx, "client_chosen")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
}

func TestAppendMessagesTrimsToKeep(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"q1", "q2", "q3"} {
		require.NoError(t, repo.AppendMessages(ctx, "session_trim", domain.Exchange(q, "a-"+q, time.Now()), 4))
	}

	msgs, err := repo.ListMessages(ctx, "session_trim")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "q2", msgs[0].Content)
	assert.Equal(t, "a-q3", msgs[3].Content)
}

func TestListMessagesIsolatedPerSession(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.AppendMessages(ctx, "session_a", domain.Exchange("qa", "aa", time.Now()), 0))
	require.NoError(t, repo.AppendMessages(ctx, "session_b", domain.Exchange("qb", "ab", time.Now()), 0))

	msgs, err := repo.ListMessages(ctx, "session_a")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "qa", msgs[0].Content)

	empty, err := repo.ListMessages(ctx, "session_none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteIdleSessions(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateSession(ctx, "session_old", time.Now().Add(-2*time.Hour)))
	require.NoError(t, repo.AppendMessages(ctx, "session_fresh", domain.Exchange("q", "a", time.Now()), 0))

	deleted, err := repo.DeleteIdleSessions(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	old, err := repo.GetSession(ctx, "session_old")
	require.NoError(t, err)
	assert.Nil(t, old)

	fresh, err := repo.GetSession(ctx, "session_fresh")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}

func TestPing(t *testing.T) {
	repo := newTestStore(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
