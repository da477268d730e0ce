package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyRepoImpl stores replayable responses when Redis is not
// configured. Keys arrive already hashed.
type IdempotencyRepoImpl struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewIdempotencyRepo(pool *pgxpool.Pool) *IdempotencyRepoImpl {
	return &IdempotencyRepoImpl{pool: pool, now: time.Now}
}

func (r *IdempotencyRepoImpl) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT response FROM idempotency_keys WHERE key_hash = $1 AND expires_at > $2`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var response string
	err := r.pool.QueryRow(ctx, q, key, r.now()).Scan(&response)
	if isNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get idempotency key: %w", err)
	}
	return response, nil
}

// Set keeps the first response stored for key unless it has expired.
func (r *IdempotencyRepoImpl) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const q = `
		INSERT INTO idempotency_keys (key_hash, response, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key_hash) DO UPDATE SET
			response = EXCLUDED.response,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_keys.expires_at <= now()`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, q, key, value, r.now().Add(ttl)); err != nil {
		return fmt.Errorf("store idempotency key: %w", err)
	}
	return nil
}

func (r *IdempotencyRepoImpl) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return result.RowsAffected(), nil
}
