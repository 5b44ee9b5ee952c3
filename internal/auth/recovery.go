package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/benlox44/restaurant-auth/internal/store"
	"github.com/benlox44/restaurant-auth/internal/token"
)

// RequestPasswordReset mails a reset token to a confirmed account. When the
// address is unknown or unconfirmed it silently succeeds with no token issued,
// so the response shape never reveals whether an account exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsEmailConfirmed {
		return nil
	}

	reset, err := s.tokens.Issue(token.PurposeResetPassword, user.ID, user.Email, token.PurposeResetPassword.TTL())
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	s.mail.SendPasswordReset(ctx, user.Email, reset)
	return nil
}

// ResetPassword consumes a reset-password token and replaces the credential
// hash.
func (s *Service) ResetPassword(ctx context.Context, raw, newSecret string) error {
	return s.resetPassword(ctx, raw, newSecret, token.PurposeResetPassword)
}

// ResetPasswordAfterRevert is the same transition gated by the token minted
// when an email change is reverted.
func (s *Service) ResetPasswordAfterRevert(ctx context.Context, raw, newSecret string) error {
	return s.resetPassword(ctx, raw, newSecret, token.PurposeResetPasswordAfterRevert)
}

func (s *Service) resetPassword(ctx context.Context, raw, newSecret string, purpose token.Purpose) error {
	claims, err := s.tokens.Verify(ctx, raw, purpose)
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

	match, err := s.hasher.Verify(newSecret, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("compare credentials: %w", err)
	}
	if match {
		// Rejected by a business rule, not by the token: leave the token
		// unburned so the caller can retry with a different password.
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

	return s.tokens.MarkUsed(ctx, claims.ID, purpose.TTL())
}

// RequestUnlock mails an unlock token to a locked account. Like
// RequestPasswordReset, it is a silent no-op for unknown or unlocked
// accounts.
func (s *Service) RequestUnlock(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsLocked {
		return nil
	}

	unlock, err := s.tokens.Issue(token.PurposeUnlockAccount, user.ID, user.Email, token.PurposeUnlockAccount.TTL())
	if err != nil {
		return fmt.Errorf("issue unlock token: %w", err)
	}
	s.mail.SendUnlock(ctx, user.Email, unlock)
	return nil
}

// UnlockAccount consumes an unlock token, clears the lock flag and resets the
// failure counter so a stale count cannot immediately re-lock the account.
func (s *Service) UnlockAccount(ctx context.Context, raw string) error {
	claims, err := s.tokens.Verify(ctx, raw, token.PurposeUnlockAccount)
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

	if !user.IsLocked {
		return ErrAlreadyUnlocked
	}

	user.IsLocked = false
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("unlock account: %w", err)
	}
	if err := s.failures.Reset(ctx, user.Email); err != nil {
		return err
	}

	return s.tokens.MarkUsed(ctx, claims.ID, token.PurposeUnlockAccount.TTL())
}
