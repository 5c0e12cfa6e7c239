package services

import (
	"context"
	"errors"
	"strings"

	"github.com/chirpnet/apiserver/internal/auth"
	"github.com/chirpnet/apiserver/internal/store"
	"github.com/chirpnet/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	ListOthers(ctx context.Context, excludeID string) ([]types.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]types.User, error)
}

// AuthService orchestrates registration, login, password changes and
// current-user lookups. It holds no mutable state across requests.
type AuthService struct {
	users  UserRepository
	hasher *auth.Hasher
	tokens *auth.Tokens
}

func NewAuthService(users UserRepository, hasher *auth.Hasher, tokens *auth.Tokens) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates an account for a fresh email, hashes the password and
// issues a session token. A duplicate (normalized) email yields
// ErrEmailTaken, whether detected up front or by the store's unique index
// under concurrent registration.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (types.User, string, error) {
	email = NormalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return types.User{}, "", ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, "", err
	}

	user, err := s.users.Create(ctx, types.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return types.User{}, "", ErrEmailTaken
		}
		return types.User{}, "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return types.User{}, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a fresh token. Unknown email and
// wrong password both return ErrInvalidCredentials so callers cannot
// enumerate registered addresses.
func (s *AuthService) Login(ctx context.Context, email, password string) (types.User, string, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", ErrInvalidCredentials
		}
		return types.User{}, "", err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return types.User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return types.User{}, "", err
	}
	return user, token, nil
}

// ChangePassword verifies the current password and overwrites the stored
// hash. Unlike Login it distinguishes a vanished identity
// (store.ErrNotFound) from a wrong current password (ErrWrongPassword).
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	_, err = s.users.Update(ctx, user)
	return err
}

// CurrentUser returns the account for the given ID.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (types.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Logout is a no-op: tokens are stateless bearers, so there is nothing
// server-side to invalidate. The client discards its token.
func (s *AuthService) Logout() string {
	return "Logged out successfully"
}

// NormalizeEmail lowercases and trims an email address. The store's unique
// index operates on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
