package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"geocatalog/internal/config"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("image exceeds upload limit")
	// ErrNotImage is returned when an upload does not decode as an image.
	ErrNotImage = errors.New("upload is not a valid image")
	// ErrInvalidName is returned for names that would escape the media root.
	ErrInvalidName = errors.New("invalid media file name")
)

// MediaStore keeps uploaded entity images as files under the media root.
type MediaStore struct {
	root     string
	maxBytes int64
}

// NewMediaStore creates the media root if needed.
func NewMediaStore(cfg *config.Config) (*MediaStore, error) {
	if err := os.MkdirAll(cfg.MediaRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &MediaStore{root: cfg.MediaRoot, maxBytes: cfg.MaxUploadBytes()}, nil
}

// Root returns the media directory.
func (s *MediaStore) Root() string {
	return s.root
}

// Save verifies that r holds a decodable image and writes it under a
// server-assigned name, which is returned.
func (s *MediaStore) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	name := uuid.New().String() + "." + extension(format)
	if err := os.WriteFile(filepath.Join(s.root, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", name, err)
	}

	return name, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *MediaStore) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image %s: %w", name, err)
	}
	return nil
}

// Path resolves a stored name to its location on disk.
func (s *MediaStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.root, name), nil
}

func extension(format string) string {
	switch format {
	case "jpeg":
		return "jpg"
	case "":
		return "img"
	default:
		return format
	}
}
