package postgres

import (
	"context"
	"fmt"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepoImpl struct{ pool *pgxpool.Pool }

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepoImpl { return &UsersRepoImpl{pool: pool} }

const userCols = `id, name, email, password_hash, role, is_active, created_by_id, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.IsActive, &u.CreatedByID, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (r *UsersRepoImpl) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (id, name, email, password_hash, role, is_active, created_by_id)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + userCols
	id := u.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	out, err := scanUser(r.pool.QueryRow(ctx, q,
		id, u.Name, u.Email, u.PasswordHash, string(u.Role), u.IsActive, u.CreatedByID,
	))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("create user %s: %w", u.Email, domain.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return out, nil
}

func (r *UsersRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if isNoRows(err) {
		return nil, &domain.NotFoundError{Resource: "user", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (r *UsersRepoImpl) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if isNoRows(err) {
		return nil, &domain.NotFoundError{Resource: "user", ID: email}
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *UsersRepoImpl) List(ctx context.Context) ([]domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users ORDER BY created_at DESC, email`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var us []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		us = append(us, *u)
	}
	return us, rows.Err()
}

func (r *UsersRepoImpl) Update(ctx context.Context, id uuid.UUID, c domain.UserChanges) (*domain.User, error) {
	const q = `UPDATE users SET
    name          = COALESCE($2::text, name),
    email         = COALESCE($3::text, email),
    password_hash = COALESCE($4::text, password_hash),
    role          = COALESCE($5::text, role),
    is_active     = COALESCE($6::boolean, is_active),
    updated_at    = now()
  WHERE id=$1
  RETURNING ` + userCols

	var role *string
	if c.Role != nil {
		s := string(*c.Role)
		role = &s
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	u, err := scanUser(r.pool.QueryRow(ctx, q, id, c.Name, c.Email, c.PasswordHash, role, c.IsActive))
	if isNoRows(err) {
		return nil, &domain.NotFoundError{Resource: "user", ID: id.String()}
	}
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("update user %s: %w", id, domain.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	return u, nil
}

func (r *UsersRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "user", ID: id.String()}
	}
	return nil
}

func (r *UsersRepoImpl) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	const q = `SELECT count(*) FROM users WHERE role=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var n int
	if err := r.pool.QueryRow(ctx, q, string(role)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

var _ repo.UserRepository = (*UsersRepoImpl)(nil)
