package model

import "time"

// OfflineImage marks that a user has cached an entity's image locally.
// There is at most one marker per (entity, user) pair.
type OfflineImage struct {
	ID         int64
	EntityID   int64
	UserID     int64
	LocalPath  string
	LastSynced time.Time
}
