package token

import "time"

// Purpose tags a token with the single operation it authorizes. A token is
// only ever accepted by the operation matching its purpose; everything else
// rejects it the same way it would reject a forged token.
type Purpose string

const (
	PurposeSession                  Purpose = "session"
	PurposeConfirmEmail             Purpose = "confirm-email"
	PurposeConfirmEmailUpdate       Purpose = "confirm-email-update"
	PurposeRevertEmail              Purpose = "revert-email"
	PurposeResetPassword            Purpose = "reset-password"
	PurposeResetPasswordAfterRevert Purpose = "reset-password-after-revert"
	PurposeUnlockAccount            Purpose = "unlock-account"
)

// TTL returns the validity window for tokens of this purpose. The same value
// bounds the replay-ledger entry written when the token is consumed.
func (p Purpose) TTL() time.Duration {
	switch p {
	case PurposeSession:
		return 7 * 24 * time.Hour
	case PurposeConfirmEmail:
		return 24 * time.Hour
	case PurposeConfirmEmailUpdate:
		return 24 * time.Hour
	case PurposeRevertEmail:
		return 30 * 24 * time.Hour
	case PurposeResetPassword:
		return time.Hour
	case PurposeResetPasswordAfterRevert:
		return time.Hour
	case PurposeUnlockAccount:
		return 7 * 24 * time.Hour
	}
	return 0
}

func (p Purpose) known() bool {
	return p.TTL() > 0
}
