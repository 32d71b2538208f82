package dto

import (
	"time"

	"geocatalog/internal/model"
)

// OfflineImageInput is the body of POST /offline-images/.
type OfflineImageInput struct {
	Entity    *int64 `json:"entity" validate:"required"`
	LocalPath string `json:"local_path" validate:"required,max=500"`
}

// OfflineImageResponse is the rendered form of an offline-image marker.
type OfflineImageResponse struct {
	ID         int64     `json:"id"`
	Entity     int64     `json:"entity"`
	LocalPath  string    `json:"local_path"`
	LastSynced time.Time `json:"last_synced"`
}

// NewOfflineImageResponse renders m.
func NewOfflineImageResponse(m *model.OfflineImage) OfflineImageResponse {
	return OfflineImageResponse{
		ID:         m.ID,
		Entity:     m.EntityID,
		LocalPath:  m.LocalPath,
		LastSynced: m.LastSynced,
	}
}
