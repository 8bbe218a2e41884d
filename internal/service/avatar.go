package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/taskforce/taskmanager/internal/imaging"
	"github.com/taskforce/taskmanager/internal/storage"
	"github.com/taskforce/taskmanager/internal/validation"
)

var ErrAvatarNotFound = errors.New("avatar not found")

type AvatarService struct {
	store    storage.AvatarStore
	size     int
	maxBytes int64
}

func NewAvatarService(store storage.AvatarStore, size int, maxBytes int64) *AvatarService {
	return &AvatarService{
		store:    store,
		size:     size,
		maxBytes: maxBytes,
	}
}

// Upload validates the image, converts it to a square PNG and stores it as
// the user's avatar. Rejected uploads return *validation.UploadError.
func (s *AvatarService) Upload(ctx context.Context, userID string, header *multipart.FileHeader, file multipart.File) error {
	err := validation.ValidateFile(header, file, validation.AvatarConstraints(s.maxBytes))
	if err != nil {
		return err
	}

	png, err := imaging.Avatar(file, s.size)
	if errors.Is(err, imaging.ErrUnsupportedImage) {
		return &validation.UploadError{Reason: "could not read image"}
	}
	if err != nil {
		return fmt.Errorf("failed to process avatar: %w", err)
	}

	return s.store.Save(ctx, userID, png)
}

func (s *AvatarService) Avatar(ctx context.Context, userID string) ([]byte, error) {
	data, err := s.store.Load(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAvatarNotFound
	}
	return data, err
}

// MaxBytes is the largest accepted upload.
func (s *AvatarService) MaxBytes() int64 {
	return s.maxBytes
}

func (s *AvatarService) Remove(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, userID)
}
