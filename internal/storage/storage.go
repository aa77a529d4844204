// Package storage defines the persistence boundary for account records.
package storage

import (
	"context"
	"errors"

	"github.com/pzaremba/site-auth-be/internal/models"
)

var (
	// ErrDuplicateKey is returned by Create when the username or email is
	// already taken. The underlying store enforces this atomically, so a
	// pre-check that raced and passed still cannot produce two records.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned by lookups that match no account.
	ErrNotFound = errors.New("record not found")
)

// Repository defines persistence operations for accounts. Username and
// email comparisons are case-insensitive.
type Repository interface {
	Create(ctx context.Context, acc *models.Account) error
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Save(ctx context.Context, acc *models.Account) error
}
