package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingFields is returned when a required input field is empty.
	ErrMissingFields = errors.New("missing required fields")

	// ErrPasswordTooShort is returned when a registration password is below
	// the configured minimum length.
	ErrPasswordTooShort = errors.New("password too short")

	// ErrInvalidID is returned when an account id is not well formed.
	ErrInvalidID = errors.New("invalid account id")

	// ErrDuplicateAccount is returned when the username or email is already
	// taken. It deliberately does not say which field collided.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrInvalidCredentials is returned for both unknown identifiers and
	// wrong passwords so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound is returned when no account matches a lookup.
	ErrNotFound = errors.New("account not found")

	// ErrRepository wraps storage failures surfaced to the caller. The
	// service never retries them.
	ErrRepository = errors.New("account storage unavailable")
)

// AccountLockedError is returned while an account is locked out after
// repeated failed logins. RetryAfter is the remaining lockout duration.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %s", e.RetryAfter.Round(time.Second))
}
