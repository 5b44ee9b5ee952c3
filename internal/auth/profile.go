package auth

import (
	"context"
	"fmt"

	"github.com/benlox44/restaurant-auth/types"
)

// FindMe returns the caller's own record without the credential hash.
func (s *Service) FindMe(ctx context.Context, userID int64) (types.SafeUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return types.SafeUser{}, err
	}
	return user.Safe(), nil
}

// FindAll lists every account, stripped of credential hashes.
func (s *Service) FindAll(ctx context.Context) ([]types.SafeUser, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	safe := make([]types.SafeUser, 0, len(users))
	for _, u := range users {
		safe = append(safe, u.Safe())
	}
	return safe, nil
}

// UpdateProfile changes the display name.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, name string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if name == user.Name {
		return ErrSameName
	}

	if name != "" {
		user.Name = name
	}
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdatePassword replaces the credential hash for a session-authenticated
// caller after checking the current password.
func (s *Service) UpdatePassword(ctx context.Context, userID int64, currentSecret, newSecret string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	match, err := s.hasher.Verify(currentSecret, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("compare credentials: %w", err)
	}
	if !match {
		return ErrIncorrectPassword
	}

	same, err := s.hasher.Verify(newSecret, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("compare credentials: %w", err)
	}
	if same {
		return ErrPasswordReuse
	}

	hash, err := s.hasher.Hash(newSecret)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// DeleteAccount removes an account by id.
func (s *Service) DeleteAccount(ctx context.Context, userID int64) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	return s.users.Delete(ctx, userID)
}
