package models

import "time"

// Account represents a registered account in the system.
type Account struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordDigest string    `json:"-"` // Never expose this to the client
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Security       Security  `json:"-"`
}

// Security tracks failed-login state for an account.
type Security struct {
	FailedLoginCount int
	LockedUntil      *time.Time
}

// Locked reports whether the account is locked out at the given instant.
func (s Security) Locked(now time.Time) bool {
	return s.LockedUntil != nil && s.LockedUntil.After(now)
}
