package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskforce/taskmanager/internal/repository"
)

var ErrNotFound = errors.New("object not found")

// AvatarStore keeps one processed PNG avatar per user.
type AvatarStore interface {
	Save(ctx context.Context, userID string, png []byte) error
	Load(ctx context.Context, userID string) ([]byte, error)
	// Delete removes the avatar. Deleting a missing avatar is not an error.
	Delete(ctx context.Context, userID string) error
}

// DatabaseStore keeps avatars in the users table next to the account.
type DatabaseStore struct {
	users repository.UserRepository
}

func NewDatabaseStore(users repository.UserRepository) *DatabaseStore {
	return &DatabaseStore{users: users}
}

func (s *DatabaseStore) Save(ctx context.Context, userID string, png []byte) error {
	err := s.users.SetAvatar(ctx, userID, png)
	if err != nil {
		return fmt.Errorf("failed to store avatar: %w", err)
	}
	return nil
}

func (s *DatabaseStore) Load(ctx context.Context, userID string) ([]byte, error) {
	data, err := s.users.Avatar(ctx, userID)
	if errors.Is(err, repository.ErrAvatarNotFound) || errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *DatabaseStore) Delete(ctx context.Context, userID string) error {
	err := s.users.SetAvatar(ctx, userID, nil)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	return err
}
