package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/benlox44/restaurant-auth/internal/store"
	"github.com/benlox44/restaurant-auth/internal/token"
)

// Login runs one attempt through the account guard:
//
//  1. Unknown identity fails exactly like a wrong password.
//  2. A locked account is refused before the credential comparison, so it
//     never leaks whether the supplied password was correct.
//  3. A mismatch increments the failure counter; the increment that reaches
//     the threshold locks the account.
//  4. A match resets the counter even when the email is still unconfirmed;
//     a correct password never compounds a prior failure run.
func (s *Service) Login(ctx context.Context, email, secret string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if user.IsLocked {
		return "", ErrAccountLocked
	}

	match, err := s.hasher.Verify(secret, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("compare credentials: %w", err)
	}

	if !match {
		reached, err := s.failures.RecordFailure(ctx, user.Email)
		if err != nil {
			return "", err
		}
		if reached {
			user.IsLocked = true
			if _, err := s.users.Update(ctx, user); err != nil {
				return "", fmt.Errorf("lock account: %w", err)
			}
			s.log.WarnContext(ctx, "account locked after failed logins", "user", user.ID)
			return "", ErrAccountLocked
		}
		return "", ErrInvalidCredentials
	}

	if err := s.failures.Reset(ctx, user.Email); err != nil {
		return "", err
	}

	if !user.IsEmailConfirmed {
		return "", ErrEmailNotConfirmed
	}

	return s.tokens.Issue(token.PurposeSession, user.ID, user.Email, token.PurposeSession.TTL())
}
