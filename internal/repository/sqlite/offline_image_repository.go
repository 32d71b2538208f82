package sqlite

import (
	"context"
	"fmt"
	"time"

	"geocatalog/internal/model"
	"geocatalog/internal/repository"
)

// OfflineImageRepository implements repository.OfflineImageRepository for SQLite.
type OfflineImageRepository struct {
	db *DB
}

// NewOfflineImageRepository creates a new SQLite offline-image repository.
func NewOfflineImageRepository(db *DB) *OfflineImageRepository {
	return &OfflineImageRepository{db: db}
}

// Upsert inserts the marker or, if one exists for the pair, replaces its path
// and refreshes last_synced. m is filled with the stored row.
func (r *OfflineImageRepository) Upsert(ctx context.Context, m *model.OfflineImage) error {
	now := time.Now().UTC()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO offline_images (entity_id, user_id, local_path, last_synced)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (entity_id, user_id)
		DO UPDATE SET local_path = excluded.local_path, last_synced = excluded.last_synced
	`, m.EntityID, m.UserID, m.LocalPath, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("entity %d: %w", m.EntityID, repository.ErrNotFound)
		}
		return fmt.Errorf("failed to upsert offline image: %w", err)
	}

	err = r.db.Conn().QueryRowContext(ctx, `
		SELECT id, last_synced FROM offline_images WHERE entity_id = ? AND user_id = ?
	`, m.EntityID, m.UserID).Scan(&m.ID, &m.LastSynced)
	if err != nil {
		return fmt.Errorf("failed to read offline image: %w", notFound(err))
	}
	return nil
}

// ListByUser returns the user's markers ordered by entity.
func (r *OfflineImageRepository) ListByUser(ctx context.Context, userID int64) ([]model.OfflineImage, error) {
	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, entity_id, user_id, local_path, last_synced
		FROM offline_images WHERE user_id = ? ORDER BY entity_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offline images: %w", err)
	}
	defer rows.Close()

	markers := []model.OfflineImage{}
	for rows.Next() {
		var m model.OfflineImage
		if err := rows.Scan(&m.ID, &m.EntityID, &m.UserID, &m.LocalPath, &m.LastSynced); err != nil {
			return nil, fmt.Errorf("failed to scan offline image: %w", err)
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offline images: %w", err)
	}
	return markers, nil
}

// Delete removes the marker for (entityID, userID).
func (r *OfflineImageRepository) Delete(ctx context.Context, entityID, userID int64) error {
	result, err := r.db.Conn().ExecContext(ctx, `
		DELETE FROM offline_images WHERE entity_id = ? AND user_id = ?
	`, entityID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete offline image: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return fmt.Errorf("failed to delete offline image for entity %d: %w", entityID, err)
	}
	return nil
}
