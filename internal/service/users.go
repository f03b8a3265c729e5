package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/repository"
)

// UserService resolves identities to stored users.
type UserService struct {
	store repository.UserStore
}

// NewUserService constructs a UserService.
func NewUserService(store repository.UserStore) *UserService {
	return &UserService{store: store}
}

// Ensure returns the user with email, creating it on first sight. An empty
// name falls back to domain.DefaultUserName.
func (s *UserService) Ensure(ctx context.Context, email, name string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, ErrUnauthenticated
	}
	if !validEmail(email) {
		return domain.User{}, fmt.Errorf("%w: email %q is not valid", ErrInvalidInput, email)
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	name = sanitizeString(name)
	if name == "" {
		name = domain.DefaultUserName
	}
	user, err = s.store.CreateUser(ctx, domain.User{Email: email, Name: name})
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a race with a concurrent first login.
		return s.store.GetUserByEmail(ctx, email)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Lookup returns the existing user with email without creating one.
func (s *UserService) Lookup(ctx context.Context, email string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, ErrUnauthenticated
	}
	return s.store.GetUserByEmail(ctx, email)
}
