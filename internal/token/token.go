// Package token mints and verifies the signed, expiring, single-use tokens
// that gate every sensitive account transition. Verification and consumption
// are deliberately separate steps: Verify can be called speculatively while
// business checks run, and MarkUsed burns the token only after the guarded
// mutation has been persisted.
package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenMalformed covers empty, unparseable, badly signed, and expired
	// tokens. Callers must surface all token failures with one generic
	// message; the distinct sentinels below exist for logging and tests only.
	ErrTokenMalformed = errors.New("invalid or expired token")
	// ErrWrongPurpose indicates the token is genuine but was issued for a
	// different operation.
	ErrWrongPurpose = errors.New("invalid token purpose")
	// ErrTokenUsed indicates the token id is already present in the replay
	// ledger.
	ErrTokenUsed = errors.New("token has already been used")
	// ErrLedgerUnavailable indicates the replay ledger backend is unreachable.
	ErrLedgerUnavailable = errors.New("replay ledger unavailable")
)

// ReplayLedger records consumed token ids. Presence of an id means the token
// it belongs to must never verify again.
type ReplayLedger interface {
	Exists(ctx context.Context, jti string) (bool, error)
	Mark(ctx context.Context, jti string, ttl time.Duration) error
}

// Claims is the payload carried by every token.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	Email   string  `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject back into the account id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrTokenMalformed)
	}
	return id, nil
}

// Manager issues and verifies purpose-tagged HS256 tokens. Issue is
// stateless; only MarkUsed touches the replay ledger's write path.
type Manager struct {
	secret []byte
	ledger ReplayLedger
	now    func() time.Time
}

func NewManager(secret []byte, ledger ReplayLedger) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret is required")
	}
	if ledger == nil {
		return nil, errors.New("token: replay ledger is required")
	}
	return &Manager{secret: secret, ledger: ledger, now: time.Now}, nil
}

// Issue mints a signed token with a fresh jti and an expiry of now+ttl.
func (m *Manager) Issue(purpose Purpose, userID int64, email string, ttl time.Duration) (string, error) {
	if !purpose.known() {
		return "", fmt.Errorf("token: unknown purpose %q", purpose)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token: non-positive ttl for purpose %q", purpose)
	}

	now := m.now()
	claims := Claims{
		Purpose: purpose,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks structure, signature and expiry first, then the purpose, then
// the replay ledger. It never marks the token used; a token rejected by a
// later business rule stays valid for retry.
func (m *Manager) Verify(ctx context.Context, raw string, expected Purpose) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	if claims.Purpose != expected {
		return nil, ErrWrongPurpose
	}

	used, err := m.ledger.Exists(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if used {
		return nil, ErrTokenUsed
	}

	return claims, nil
}

// MarkUsed records consumption of the token id for the full validity window
// of its purpose. Marking an already-marked id again is a no-op.
func (m *Manager) MarkUsed(ctx context.Context, jti string, ttl time.Duration) error {
	if err := m.ledger.Mark(ctx, jti, ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return nil
}

// IsVerificationError reports whether err is one of the token-verification
// failures that must collapse to a single external message.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrWrongPurpose) ||
		errors.Is(err, ErrTokenUsed)
}
