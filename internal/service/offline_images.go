package service

import (
	"context"

	"geocatalog/internal/model"
	"geocatalog/internal/repository"
)

// OfflineImageService records which entity images a user keeps offline.
type OfflineImageService struct {
	markers repository.OfflineImageRepository
}

// NewOfflineImageService creates an OfflineImageService.
func NewOfflineImageService(markers repository.OfflineImageRepository) *OfflineImageService {
	return &OfflineImageService{markers: markers}
}

// List returns the caller's markers.
func (s *OfflineImageService) List(ctx context.Context, caller *model.User) ([]model.OfflineImage, error) {
	return s.markers.ListByUser(ctx, caller.ID)
}

// Mark creates or refreshes the caller's marker for entityID.
// repository.ErrNotFound is returned when the entity does not exist.
func (s *OfflineImageService) Mark(ctx context.Context, caller *model.User, entityID int64, localPath string) (*model.OfflineImage, error) {
	m := &model.OfflineImage{EntityID: entityID, UserID: caller.ID, LocalPath: localPath}
	if err := s.markers.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Unmark removes the caller's marker for entityID.
func (s *OfflineImageService) Unmark(ctx context.Context, caller *model.User, entityID int64) error {
	return s.markers.Delete(ctx, entityID, caller.ID)
}
