package repository

import (
	"context"
	"errors"

	"geocatalog/internal/model"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// EntityRepository defines the interface for GeoEntity data operations.
type EntityRepository interface {
	// Create operations
	Insert(ctx context.Context, e *model.GeoEntity) error

	// Read operations
	GetByID(ctx context.Context, id int64) (*model.GeoEntity, error)
	List(ctx context.Context) ([]model.GeoEntity, error)
	ListByOwner(ctx context.Context, userID int64) ([]model.GeoEntity, error)
	Count(ctx context.Context) (int, error)

	// Update operations. Owner and created_at are never written.
	Update(ctx context.Context, e *model.GeoEntity) error

	// Delete operations
	Delete(ctx context.Context, id int64) error
}

// UserRepository defines the interface for user accounts.
type UserRepository interface {
	Insert(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int64) error
}

// TokenRepository defines the interface for bearer tokens.
type TokenRepository interface {
	// GetOrCreate returns the user's token, inserting newKey if none exists.
	GetOrCreate(ctx context.Context, userID int64, newKey string) (*model.Token, error)
	GetByKey(ctx context.Context, key string) (*model.Token, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

// OfflineImageRepository defines the interface for offline-image markers.
type OfflineImageRepository interface {
	// Upsert inserts or refreshes the marker for (EntityID, UserID).
	Upsert(ctx context.Context, m *model.OfflineImage) error
	ListByUser(ctx context.Context, userID int64) ([]model.OfflineImage, error)
	Delete(ctx context.Context, entityID, userID int64) error
}
