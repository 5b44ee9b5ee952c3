package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown identities and wrong
	// passwords alike, so login responses never reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while the lock flag is set, before any
	// credential comparison happens.
	ErrAccountLocked = errors.New("account is locked")
	// ErrEmailNotConfirmed refuses login until the confirmation token has
	// been consumed.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrEmailTaken is returned when registering or changing to an address
	// that already belongs to an account.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrPasswordReuse rejects a new password equal to the current one.
	ErrPasswordReuse = errors.New("new password must be different from the current one")
	// ErrEmailChangeCooldown rejects an email-change request before the
	// cooldown since the last completed change has elapsed.
	ErrEmailChangeCooldown = errors.New("email change cooldown has not elapsed")
	// ErrSameEmail rejects a change to the address already in use.
	ErrSameEmail = errors.New("new email must be different from the current one")
	// ErrSameName rejects a profile update that changes nothing.
	ErrSameName = errors.New("new name must be different from the current one")
	// ErrAlreadyConfirmed rejects a confirm-email token for a confirmed
	// account.
	ErrAlreadyConfirmed = errors.New("email already confirmed")
	// ErrAlreadyUnlocked rejects an unlock token for an unlocked account.
	ErrAlreadyUnlocked = errors.New("account is already unlocked")
	// ErrIncorrectPassword is returned when a session-authenticated operation
	// fails its current-password check.
	ErrIncorrectPassword = errors.New("incorrect password")
)
