package service

import (
	"context"
	"io"

	"geocatalog/internal/logger"
	"geocatalog/internal/model"
	"geocatalog/internal/repository"
	"geocatalog/internal/service/storage"
)

// EntityChanges carries the caller-writable fields of an entity. Nil fields
// are left as they are.
type EntityChanges struct {
	Title *string
	Lat   *float64
	Lon   *float64

	// Properties is applied only when SetProperties is true, so an explicit
	// null can clear the stored value.
	Properties    model.Properties
	SetProperties bool

	// Image, when set, is stored and replaces the current file.
	Image io.Reader
}

// EntityService implements the entity catalog and its ownership rule.
type EntityService struct {
	entities repository.EntityRepository
	media    *storage.MediaStore
}

// NewEntityService creates an EntityService.
func NewEntityService(entities repository.EntityRepository, media *storage.MediaStore) *EntityService {
	return &EntityService{entities: entities, media: media}
}

// List returns every entity regardless of owner.
func (s *EntityService) List(ctx context.Context) ([]model.GeoEntity, error) {
	return s.entities.List(ctx)
}

// Get returns one entity.
func (s *EntityService) Get(ctx context.Context, id int64) (*model.GeoEntity, error) {
	return s.entities.GetByID(ctx, id)
}

// Create stores a new entity owned by owner. Title, Lat and Lon must be set.
func (s *EntityService) Create(ctx context.Context, owner *model.User, in EntityChanges) (*model.GeoEntity, error) {
	e := &model.GeoEntity{UserID: owner.ID, Owner: owner.Username}
	apply(e, in)

	if in.Image != nil {
		name, err := s.media.Save(in.Image)
		if err != nil {
			return nil, err
		}
		e.Image = name
	}

	if err := s.entities.Insert(ctx, e); err != nil {
		s.discard(ctx, e.Image)
		return nil, err
	}

	logger.Ctx(ctx).Info().Int64("entity_id", e.ID).Int64("user_id", owner.ID).Msg("entity created")
	return e, nil
}

// Authorize returns the entity if it exists and caller owns it. Handlers call
// it before reading a request body so that existence and ownership are
// reported ahead of payload errors.
func (s *EntityService) Authorize(ctx context.Context, caller *model.User, id int64, action string) (*model.GeoEntity, error) {
	return s.owned(ctx, caller, id, action)
}

// Update applies in to the entity if caller owns it. A new image replaces the
// stored file, which is then removed.
func (s *EntityService) Update(ctx context.Context, caller *model.User, id int64, in EntityChanges) (*model.GeoEntity, error) {
	e, err := s.owned(ctx, caller, id, ActionUpdate)
	if err != nil {
		return nil, err
	}

	apply(e, in)

	previous := e.Image
	if in.Image != nil {
		name, err := s.media.Save(in.Image)
		if err != nil {
			return nil, err
		}
		e.Image = name
	}

	if err := s.entities.Update(ctx, e); err != nil {
		if e.Image != previous {
			s.discard(ctx, e.Image)
		}
		return nil, err
	}

	if e.Image != previous {
		s.discard(ctx, previous)
	}
	return e, nil
}

// Delete removes the entity if caller owns it. The image file goes first and
// a failure to remove it does not stop the record from being deleted.
func (s *EntityService) Delete(ctx context.Context, caller *model.User, id int64) error {
	e, err := s.owned(ctx, caller, id, ActionDelete)
	if err != nil {
		return err
	}

	s.discard(ctx, e.Image)

	if err := s.entities.Delete(ctx, id); err != nil {
		return err
	}

	logger.Ctx(ctx).Info().Int64("entity_id", id).Int64("user_id", caller.ID).Msg("entity deleted")
	return nil
}

// owned loads the entity and checks the caller is its owner.
func (s *EntityService) owned(ctx context.Context, caller *model.User, id int64, action string) (*model.GeoEntity, error) {
	e, err := s.entities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != caller.ID {
		return nil, &ForbiddenError{EntityID: id, Action: action}
	}
	return e, nil
}

func (s *EntityService) discard(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.media.Remove(name); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("image", name).Msg("failed to remove image file")
	}
}

func apply(e *model.GeoEntity, in EntityChanges) {
	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.Lat != nil {
		e.Lat = *in.Lat
	}
	if in.Lon != nil {
		e.Lon = *in.Lon
	}
	if in.SetProperties {
		e.Properties = in.Properties
	}
}
