package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// GeoEntity is a titled geographic point owned by one user.
type GeoEntity struct {
	ID         int64
	Title      string
	Lat        float64
	Lon        float64
	Image      string // file name relative to the media root, "" when absent
	Properties Properties
	UserID     int64
	Owner      string // owner's username, filled on reads
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasImage reports whether an image file is attached.
func (e *GeoEntity) HasImage() bool {
	return e.Image != ""
}

// Properties is a free-form JSON object. A nil map is stored as NULL.
type Properties map[string]any

// Value implements driver.Valuer.
func (p Properties) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(p))
	if err != nil {
		return nil, fmt.Errorf("failed to encode properties: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *Properties) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported properties column type %T", src)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("failed to decode properties: %w", err)
	}
	*p = m
	return nil
}

// ErrPropertiesNotObject is returned when a properties document is valid JSON
// but not an object.
var ErrPropertiesNotObject = errors.New("properties must be a JSON object")

// ParseProperties decodes raw JSON into Properties. "null" and empty input
// yield nil.
func ParseProperties(raw []byte) (Properties, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("properties is not valid JSON: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, ErrPropertiesNotObject
	}
	return Properties(m), nil
}

// PropertiesFrom converts an already decoded JSON value into Properties.
// nil yields nil; anything other than an object is rejected.
func PropertiesFrom(v any) (Properties, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return Properties(m), nil
	default:
		return nil, ErrPropertiesNotObject
	}
}
