package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/course-rag/internal/shared"
	"github.com/ashureev/course-rag/internal/store"
)

const (
	sweepMaxRetries = 3
	sweepRetryDelay = 100 * time.Millisecond
)

// RunSessionSweeper periodically deletes sessions idle for longer than ttl.
// It blocks until ctx is cancelled and always returns nil.
func RunSessionSweeper(ctx context.Context, repo store.Repository, ttl, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("Session sweeper started", "interval", interval, "ttl", ttl)

	for {
		select {
		case <-ticker.C:
			sweepIdleSessions(ctx, repo, ttl)
		case <-ctx.Done():
			slog.Info("Session sweeper shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

func sweepIdleSessions(ctx context.Context, repo store.Repository, ttl time.Duration) {
	var deleted int64
	err := shared.RetryOnConflict(ctx, sweepMaxRetries, sweepRetryDelay, func(ctx context.Context) error {
		n, err := repo.DeleteIdleSessions(ctx, ttl)
		deleted = n
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("Session sweep interrupted", "error", err)
			return
		}
		slog.Error("Session sweeper failed to delete idle sessions", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Session sweeper removed idle sessions", "count", deleted)
	}
}
