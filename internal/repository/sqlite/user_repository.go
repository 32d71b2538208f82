package sqlite

import (
	"context"
	"fmt"
	"time"

	"geocatalog/internal/model"
	"geocatalog/internal/repository"
)

// UserRepository implements repository.UserRepository for SQLite.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert creates a user. A taken username yields repository.ErrConflict.
func (r *UserRepository) Insert(ctx context.Context, u *model.User) error {
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}

	result, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, date_joined)
		VALUES (?, ?, ?, ?)
	`, u.Username, u.Email, u.PasswordHash, u.DateJoined)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", u.Username, repository.ErrConflict)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	u.ID = id
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, date_joined FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DateJoined)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, notFound(err))
	}
	return &u, nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, date_joined FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DateJoined)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, notFound(err))
	}
	return &u, nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Delete removes a user. Their token, entities and markers cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn().ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	if err := expectOneRow(result); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return nil
}
