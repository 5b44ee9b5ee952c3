// Package auth implements the account-management core: registration, login
// with failure-counted lockout, and the token-gated recovery and email-change
// workflows. Every sensitive state transition consumes a single-use,
// purpose-tagged token; tokens are burned only after the mutation they guard
// has been persisted.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benlox44/restaurant-auth/internal/mail"
	"github.com/benlox44/restaurant-auth/internal/password"
	"github.com/benlox44/restaurant-auth/internal/store"
	"github.com/benlox44/restaurant-auth/internal/token"
	"github.com/benlox44/restaurant-auth/types"
)

// UserRepository defines the persistence operations the core needs. No other
// query shapes are required.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (types.User, error)
	FindByEmail(ctx context.Context, email string) (types.User, error)
	FindAll(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int64) error
	DeleteUnconfirmedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// FailureCounter tracks consecutive failed logins per identity.
type FailureCounter interface {
	RecordFailure(ctx context.Context, identity string) (bool, error)
	Reset(ctx context.Context, identity string) error
}

// Config carries the injected collaborators. Users, Tokens, Mail, Hasher and
// Failures are required; the rest default.
type Config struct {
	Users    UserRepository
	Tokens   *token.Manager
	Mail     mail.Notifier
	Hasher   password.Hasher
	Failures FailureCounter
	Logger   *slog.Logger

	EmailChangeCooldown   time.Duration
	UnconfirmedAccountAge time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

// Service orchestrates the account flows. Safe for concurrent use; all state
// lives in the injected stores.
type Service struct {
	users    UserRepository
	tokens   *token.Manager
	mail     mail.Notifier
	hasher   password.Hasher
	failures FailureCounter
	log      *slog.Logger

	cooldown       time.Duration
	unconfirmedAge time.Duration
	now            func() time.Time
}

func New(cfg Config) (*Service, error) {
	if cfg.Users == nil {
		return nil, errors.New("auth: user repository is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("auth: token manager is required")
	}
	if cfg.Mail == nil {
		return nil, errors.New("auth: mail notifier is required")
	}
	if cfg.Hasher == nil {
		return nil, errors.New("auth: password hasher is required")
	}
	if cfg.Failures == nil {
		return nil, errors.New("auth: failure counter is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.EmailChangeCooldown <= 0 {
		cfg.EmailChangeCooldown = 30 * 24 * time.Hour
	}
	if cfg.UnconfirmedAccountAge <= 0 {
		cfg.UnconfirmedAccountAge = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		users:          cfg.Users,
		tokens:         cfg.Tokens,
		mail:           cfg.Mail,
		hasher:         cfg.Hasher,
		failures:       cfg.Failures,
		log:            cfg.Logger,
		cooldown:       cfg.EmailChangeCooldown,
		unconfirmedAge: cfg.UnconfirmedAccountAge,
		now:            cfg.Now,
	}, nil
}

func (s *Service) ensureEmailAvailable(ctx context.Context, email string) error {
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("lookup email: %w", err)
}
