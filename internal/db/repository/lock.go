package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// VideoLocker provides per-video mutual exclusion across processes.
type VideoLocker interface {
	// TryLock attempts to take the lock without waiting. When ok is true the
	// caller must call unlock exactly once.
	TryLock(ctx context.Context, videoID string) (unlock func(), ok bool, err error)
}

type advisoryLocker struct {
	pool *pgxpool.Pool
}

// NewAdvisoryLocker creates a VideoLocker backed by PostgreSQL session advisory locks.
func NewAdvisoryLocker(pool *pgxpool.Pool) VideoLocker {
	return &advisoryLocker{pool: pool}
}

func (l *advisoryLocker) TryLock(ctx context.Context, videoID string) (func(), bool, error) {
	// Session locks belong to a connection, so hold one for the lock's lifetime.
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock connection: %w", err)
	}

	key := "ytseo:video:" + videoID

	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtextextended($1, 0))`, key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key)
		conn.Release()
	}

	return unlock, true, nil
}
