package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RateLimitRepoImpl is a fixed-window counter in postgres, used for login
// throttling when Redis is not configured.
type RateLimitRepoImpl struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewRateLimitRepo(pool *pgxpool.Pool) *RateLimitRepoImpl {
	return &RateLimitRepoImpl{pool: pool, now: time.Now}
}

func (r *RateLimitRepoImpl) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := r.now()
	windowStart := now.Add(-window)

	const q = `
		INSERT INTO rate_limits (key, count, window_start, expires_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			count = CASE
				WHEN rate_limits.window_start < $4 THEN 1
				ELSE rate_limits.count + 1
			END,
			window_start = CASE
				WHEN rate_limits.window_start < $4 THEN $2
				ELSE rate_limits.window_start
			END,
			expires_at = $3
		RETURNING count`

	var count int64
	if err := r.pool.QueryRow(ctx, q, key, now, now.Add(window), windowStart).Scan(&count); err != nil {
		return 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return count, nil
}
