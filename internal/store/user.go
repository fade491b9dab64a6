package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/life-master/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (types.User, error) {
	const query = `
		SELECT id, username, email, password_hash, created_at, last_login
		FROM users
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByUsernameOrEmail resolves a login identifier against either unique
// column in a single query.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (types.User, error) {
	const query = `
		SELECT id, username, email, password_hash, created_at, last_login
		FROM users
		WHERE username = $1 OR email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, identifier))
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, username).Scan(&exists)
	return exists, err
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.CreatedAt = time.Now()

	const query = `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, mapUserConstraint(err)
	}
	return user, nil
}

// UpdatePassword replaces the user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateEmail replaces the user's email address. A concurrent claim of the
// same address surfaces through the unique constraint.
func (r *UserRepository) UpdateEmail(ctx context.Context, id int64, email string) (types.User, error) {
	const query = `
		UPDATE users SET email = $1
		WHERE id = $2
		RETURNING id, username, email, password_hash, created_at, last_login`
	user, err := r.scanOne(r.db.QueryRowContext(ctx, query, email, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.User{}, err
		}
		return types.User{}, mapUserConstraint(err)
	}
	return user, nil
}

// TouchLastLogin stamps the user's most recent successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE users SET last_login = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.LastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
