package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"geocatalog/internal/model"
	"geocatalog/internal/repository"
)

const entityColumns = `
	e.id, e.title, e.lat, e.lon, e.image, e.properties, e.user_id, u.username, e.created_at, e.updated_at
	FROM geo_entities e
	JOIN users u ON u.id = e.user_id
`

// EntityRepository implements repository.EntityRepository for SQLite.
type EntityRepository struct {
	db *DB
}

// NewEntityRepository creates a new SQLite entity repository.
func NewEntityRepository(db *DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// Insert stores a new entity and fills in its ID and timestamps.
func (r *EntityRepository) Insert(ctx context.Context, e *model.GeoEntity) error {
	now := time.Now().UTC()

	result, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO geo_entities (title, lat, lon, image, properties, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Title, e.Lat, e.Lon, e.Image, e.Properties, e.UserID, now, now)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("owner %d: %w", e.UserID, repository.ErrNotFound)
		}
		return fmt.Errorf("failed to insert entity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetByID retrieves an entity by its ID.
func (r *EntityRepository) GetByID(ctx context.Context, id int64) (*model.GeoEntity, error) {
	row := r.db.Conn().QueryRowContext(ctx, `SELECT `+entityColumns+` WHERE e.id = ?`, id)

	e, err := scanEntity(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get entity %d: %w", id, notFound(err))
	}
	return e, nil
}

// List returns every entity ordered by ID.
func (r *EntityRepository) List(ctx context.Context) ([]model.GeoEntity, error) {
	return r.query(ctx, `SELECT `+entityColumns+` ORDER BY e.id`)
}

// ListByOwner returns the entities owned by userID.
func (r *EntityRepository) ListByOwner(ctx context.Context, userID int64) ([]model.GeoEntity, error) {
	return r.query(ctx, `SELECT `+entityColumns+` WHERE e.user_id = ? ORDER BY e.id`, userID)
}

// Count returns the number of stored entities.
func (r *EntityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM geo_entities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return count, nil
}

// Update writes the mutable fields of e and refreshes updated_at.
// user_id and created_at are left untouched.
func (r *EntityRepository) Update(ctx context.Context, e *model.GeoEntity) error {
	now := time.Now().UTC()

	result, err := r.db.Conn().ExecContext(ctx, `
		UPDATE geo_entities
		SET title = ?, lat = ?, lon = ?, image = ?, properties = ?, updated_at = ?
		WHERE id = ?
	`, e.Title, e.Lat, e.Lon, e.Image, e.Properties, now, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update entity %d: %w", e.ID, err)
	}

	if err := expectOneRow(result); err != nil {
		return fmt.Errorf("failed to update entity %d: %w", e.ID, err)
	}

	e.UpdatedAt = now
	return nil
}

// Delete removes an entity. Its offline-image markers cascade.
func (r *EntityRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn().ExecContext(ctx, `DELETE FROM geo_entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity %d: %w", id, err)
	}
	if err := expectOneRow(result); err != nil {
		return fmt.Errorf("failed to delete entity %d: %w", id, err)
	}
	return nil
}

func (r *EntityRepository) query(ctx context.Context, query string, args ...any) ([]model.GeoEntity, error) {
	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	entities := []model.GeoEntity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entities: %w", err)
	}

	return entities, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*model.GeoEntity, error) {
	var e model.GeoEntity
	err := row.Scan(&e.ID, &e.Title, &e.Lat, &e.Lon, &e.Image, &e.Properties,
		&e.UserID, &e.Owner, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
