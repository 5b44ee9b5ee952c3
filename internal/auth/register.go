package auth

import (
	"context"
	"fmt"

	"github.com/benlox44/restaurant-auth/internal/token"
	"github.com/benlox44/restaurant-auth/types"
)

// Register creates an unconfirmed account and mails a confirm-email token.
func (s *Service) Register(ctx context.Context, name, email, secret string) error {
	if err := s.ensureEmailAvailable(ctx, email); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	confirm, err := s.tokens.Issue(token.PurposeConfirmEmail, user.ID, user.Email, token.PurposeConfirmEmail.TTL())
	if err != nil {
		return fmt.Errorf("issue confirm token: %w", err)
	}
	s.mail.SendConfirmation(ctx, user.Email, confirm)

	return nil
}

// ConfirmEmail consumes a confirm-email token and marks the account
// confirmed.
func (s *Service) ConfirmEmail(ctx context.Context, raw string) error {
	claims, err := s.tokens.Verify(ctx, raw, token.PurposeConfirmEmail)
	if err != nil {
		return err
	}
	id, err := claims.UserID()
	if err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if user.IsEmailConfirmed {
		return ErrAlreadyConfirmed
	}

	user.IsEmailConfirmed = true
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}

	return s.tokens.MarkUsed(ctx, claims.ID, token.PurposeConfirmEmail.TTL())
}

// SweepUnconfirmed deletes accounts that never confirmed within the allowed
// age. Run at startup and from the sweep command.
func (s *Service) SweepUnconfirmed(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.unconfirmedAge)
	count, err := s.users.DeleteUnconfirmedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep unconfirmed: %w", err)
	}
	s.log.InfoContext(ctx, "deleted unconfirmed accounts", "count", count, "older_than", s.unconfirmedAge)
	return count, nil
}
