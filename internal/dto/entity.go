package dto

import (
	"time"

	"geocatalog/internal/model"
)

// EntityInput is the writable part of an entity payload. Fields the server
// controls (id, owner, timestamps) are not part of it and are ignored when sent.
// A nil pointer means the field was not supplied.
type EntityInput struct {
	Title      *string  `json:"title" validate:"required,min=1,max=255"`
	Lat        *float64 `json:"lat" validate:"required,latitude"`
	Lon        *float64 `json:"lon" validate:"required,longitude"`
	Properties any      `json:"properties"`

	// PropertiesSet records whether the payload carried a properties key.
	PropertiesSet bool `json:"-"`
}

// EntityPatch has the same shape as EntityInput with every field optional.
// Convert with EntityPatch(in) to validate a partial update.
type EntityPatch struct {
	Title      *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Lat        *float64 `json:"lat" validate:"omitempty,latitude"`
	Lon        *float64 `json:"lon" validate:"omitempty,longitude"`
	Properties any      `json:"properties"`

	PropertiesSet bool `json:"-"`
}

// EntityResponse is the rendered form of a GeoEntity.
type EntityResponse struct {
	ID         int64            `json:"id"`
	Title      string           `json:"title"`
	Lat        float64          `json:"lat"`
	Lon        float64          `json:"lon"`
	Image      *string          `json:"image"`
	Properties model.Properties `json:"properties"`
	Owner      string           `json:"owner"`
	UserID     int64            `json:"user_id"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewEntityResponse renders e. imageURL turns a stored file name into the URL
// clients fetch it from.
func NewEntityResponse(e *model.GeoEntity, imageURL func(name string) string) EntityResponse {
	resp := EntityResponse{
		ID:         e.ID,
		Title:      e.Title,
		Lat:        e.Lat,
		Lon:        e.Lon,
		Properties: e.Properties,
		Owner:      e.Owner,
		UserID:     e.UserID,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.HasImage() {
		url := imageURL(e.Image)
		resp.Image = &url
	}
	return resp
}
