package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chirpnet/apiserver/internal/storage"
	"github.com/chirpnet/apiserver/types"
)

// ErrNoAvatarStorage is returned when avatar operations run without a
// configured object store.
var ErrNoAvatarStorage = errors.New("avatar storage is not configured")

// UserService encapsulates user listing and avatar use-cases.
type UserService struct {
	repo    UserRepository
	avatars *storage.Storage
}

func NewUserService(repo UserRepository, avatars *storage.Storage) *UserService {
	return &UserService{repo: repo, avatars: avatars}
}

// ListOthers returns every user except the caller.
func (s *UserService) ListOthers(ctx context.Context, currentUserID string) ([]types.User, error) {
	return s.repo.ListOthers(ctx, currentUserID)
}

// GetByID returns the user for the given ID.
func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// HasAvatarStorage reports whether an object store is configured.
func (s *UserService) HasAvatarStorage() bool {
	return s.avatars != nil
}

// SaveAvatar stores the user's avatar image, replacing any previous one.
func (s *UserService) SaveAvatar(ctx context.Context, userID string, r io.Reader, size int64, contentType string) error {
	if s.avatars == nil {
		return ErrNoAvatarStorage
	}
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.avatars.Put(ctx, avatarKey(userID), r, size, contentType)
}

// Avatar opens a reader for the user's stored avatar and reports its
// content type.
func (s *UserService) Avatar(ctx context.Context, userID string) (io.ReadCloser, string, error) {
	if s.avatars == nil {
		return nil, "", ErrNoAvatarStorage
	}
	return s.avatars.Get(ctx, avatarKey(userID))
}

func avatarKey(userID string) string {
	return fmt.Sprintf("avatars/%s", userID)
}
