package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const queryTimeout = 3 * time.Second

// Migrate applies the embedded schema. Statements are idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type Store struct {
	pool     *pgxpool.Pool
	bookings *BookingRepoImpl
	users    *UsersRepoImpl
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		bookings: NewBookingRepo(pool),
		users:    NewUsersRepo(pool),
	}
}

func (s *Store) Bookings() repo.BookingRepository { return s.bookings }
func (s *Store) Users() repo.UserRepository       { return s.users }

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *Store) Close() { s.pool.Close() }

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isCheckViolation reports a CHECK constraint failure, which the schema uses
// for the stay date order.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// isNumericOutOfRange reports SQLSTATE 22003, raised when a value does not fit
// its NUMERIC or INTEGER column.
func isNumericOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}

var _ repo.Store = (*Store)(nil)
