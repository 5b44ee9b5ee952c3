package auth

import (
	"context"
	"fmt"

	"github.com/benlox44/restaurant-auth/internal/token"
)

// RequestEmailUpdate records a pending new address for a session-authenticated
// caller and mails a confirm-email-update token to it. Requesting again before
// confirmation supersedes the pending address, which invalidates any earlier
// confirmation link through the pending-email check in ConfirmEmailUpdate.
func (s *Service) RequestEmailUpdate(ctx context.Context, userID int64, currentSecret, newEmail string) error {
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

	if err := s.ensureEmailAvailable(ctx, newEmail); err != nil {
		return err
	}

	if user.EmailChangedAt != nil && s.now().Sub(*user.EmailChangedAt) < s.cooldown {
		return ErrEmailChangeCooldown
	}

	if newEmail == user.Email {
		return ErrSameEmail
	}

	user.NewEmail = &newEmail
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store pending email: %w", err)
	}

	confirm, err := s.tokens.Issue(token.PurposeConfirmEmailUpdate, user.ID, newEmail, token.PurposeConfirmEmailUpdate.TTL())
	if err != nil {
		return fmt.Errorf("issue confirm token: %w", err)
	}
	s.mail.SendChangeConfirmation(ctx, newEmail, confirm)

	return nil
}

// ConfirmEmailUpdate promotes the pending address to primary, keeps the old
// one for the revert window, and mails a revert token to the old address. A
// token whose embedded address no longer matches the pending one was
// superseded and is rejected with the generic token-invalid shape.
func (s *Service) ConfirmEmailUpdate(ctx context.Context, raw string) error {
	claims, err := s.tokens.Verify(ctx, raw, token.PurposeConfirmEmailUpdate)
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

	if user.NewEmail == nil || *user.NewEmail != claims.Email {
		return token.ErrTokenMalformed
	}

	previous := user.Email
	user.OldEmail = &previous
	user.Email = *user.NewEmail
	user.NewEmail = nil
	changedAt := s.now()
	user.EmailChangedAt = &changedAt
	if _, err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("apply email change: %w", err)
	}

	revert, err := s.tokens.Issue(token.PurposeRevertEmail, user.ID, previous, token.PurposeRevertEmail.TTL())
	if err != nil {
		return fmt.Errorf("issue revert token: %w", err)
	}
	s.mail.SendRevertNotice(ctx, previous, revert)

	return s.tokens.MarkUsed(ctx, claims.ID, token.PurposeConfirmEmailUpdate.TTL())
}

// RevertEmail restores the previous primary address and returns a
// reset-password-after-revert token, since a hijacked change usually means
// the password is compromised too. The revert token outlives the change
// cooldown, so no extra precondition is needed here.
func (s *Service) RevertEmail(ctx context.Context, raw string) (string, error) {
	claims, err := s.tokens.Verify(ctx, raw, token.PurposeRevertEmail)
	if err != nil {
		return "", err
	}
	id, err := claims.UserID()
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	if user.OldEmail == nil {
		return "", token.ErrTokenMalformed
	}

	user.Email = *user.OldEmail
	user.OldEmail = nil
	user.EmailChangedAt = nil
	if _, err := s.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("revert email: %w", err)
	}

	if err := s.tokens.MarkUsed(ctx, claims.ID, token.PurposeRevertEmail.TTL()); err != nil {
		return "", err
	}

	return s.tokens.Issue(token.PurposeResetPasswordAfterRevert, user.ID, user.Email, token.PurposeResetPasswordAfterRevert.TTL())
}
