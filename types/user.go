package types

import "time"

// User is the full account record as stored in Postgres. PasswordHash must
// never leave the process; use SafeUser for anything that crosses the API
// boundary.
type User struct {
	ID               int64
	CreatedAt        time.Time
	Name             string
	Email            string
	PasswordHash     string
	IsLocked         bool
	IsEmailConfirmed bool

	// OldEmail is set only during the revert window that follows a completed
	// email change. NewEmail is set only while a change confirmation is
	// pending. EmailChangedAt stamps the last completed change and drives the
	// change cooldown.
	OldEmail       *string
	NewEmail       *string
	EmailChangedAt *time.Time

	Role string
}

// SafeUser is User minus the credential hash.
type SafeUser struct {
	ID               int64      `json:"id"`
	CreatedAt        time.Time  `json:"createdAt"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	IsLocked         bool       `json:"isLocked"`
	IsEmailConfirmed bool       `json:"isEmailConfirmed"`
	OldEmail         *string    `json:"oldEmail"`
	NewEmail         *string    `json:"newEmail"`
	EmailChangedAt   *time.Time `json:"emailChangedAt"`
	Role             string     `json:"role"`
}

// Safe strips the credential hash from a User.
func (u User) Safe() SafeUser {
	return SafeUser{
		ID:               u.ID,
		CreatedAt:        u.CreatedAt,
		Name:             u.Name,
		Email:            u.Email,
		IsLocked:         u.IsLocked,
		IsEmailConfirmed: u.IsEmailConfirmed,
		OldEmail:         u.OldEmail,
		NewEmail:         u.NewEmail,
		EmailChangedAt:   u.EmailChangedAt,
		Role:             u.Role,
	}
}
