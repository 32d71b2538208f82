package sqlite

import (
	"context"
	"fmt"
	"time"

	"geocatalog/internal/model"
)

// TokenRepository implements repository.TokenRepository for SQLite.
type TokenRepository struct {
	db *DB
}

// NewTokenRepository creates a new SQLite token repository.
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// GetOrCreate returns the existing token of userID or stores newKey as its token.
// The UNIQUE(user_id) constraint keeps concurrent logins to a single row.
func (r *TokenRepository) GetOrCreate(ctx context.Context, userID int64, newKey string) (*model.Token, error) {
	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO tokens (key, user_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`, newKey, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	var t model.Token
	err = r.db.Conn().QueryRowContext(ctx, `
		SELECT key, user_id, created_at FROM tokens WHERE user_id = ?
	`, userID).Scan(&t.Key, &t.UserID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get token for user %d: %w", userID, notFound(err))
	}
	return &t, nil
}

// GetByKey looks a token up by its key.
func (r *TokenRepository) GetByKey(ctx context.Context, key string) (*model.Token, error) {
	var t model.Token
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT key, user_id, created_at FROM tokens WHERE key = ?
	`, key).Scan(&t.Key, &t.UserID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", notFound(err))
	}
	return &t, nil
}

// DeleteByUser removes the user's token. Deleting a missing token is not an error.
func (r *TokenRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.Conn().ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete token for user %d: %w", userID, err)
	}
	return nil
}
