package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gridvolt/internal/models"
)

// UserRepository handles users table access.
type UserRepository struct {
	q Querier
}

// NewUserRepository returns repository instance.
func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

const userColumns = `id, username, email, password_hash, code, balance, role, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Code,
		&u.Balance,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	const query = `
		INSERT INTO users (username, email, password_hash, code, balance, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.q.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Code,
		user.Balance,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)
}

// UserByTag fetches a user by authorization tag.
func (r *UserRepository) UserByTag(ctx context.Context, tag string) (*models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE code = $1
		LIMIT 1
	`
	return scanUser(r.q.QueryRowContext(ctx, query, tag))
}

// UserByID fetches a user by primary key.
func (r *UserRepository) UserByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1
	`
	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// UserByUsername fetches a user by username.
func (r *UserRepository) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1
		LIMIT 1
	`
	return scanUser(r.q.QueryRowContext(ctx, query, strings.TrimSpace(username)))
}

// UpdateUserBalance writes the user's wallet balance.
func (r *UserRepository) UpdateUserBalance(ctx context.Context, userID int64, balance float64) error {
	const query = `
		UPDATE users
		SET balance = $2
		WHERE id = $1
	`
	_, err := r.q.ExecContext(ctx, query, userID, balance)
	return err
}
