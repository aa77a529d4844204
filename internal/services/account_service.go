package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pzaremba/site-auth-be/internal/clock"
	"github.com/pzaremba/site-auth-be/internal/hashing"
	"github.com/pzaremba/site-auth-be/internal/models"
	"github.com/pzaremba/site-auth-be/internal/storage"
)

// AccountServiceProvider defines the interface for account services.
type AccountServiceProvider interface {
	Register(ctx context.Context, username, email, password string) (models.Account, error)
	Login(ctx context.Context, identifier, password string) (models.Account, error)
	GetByID(ctx context.Context, id string) (models.Account, error)
}

// Policy holds the credential rules the service enforces.
type Policy struct {
	MinPasswordLength int
	MaxFailedLogins   int
	LockoutDuration   time.Duration
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MinPasswordLength: 6,
		MaxFailedLogins:   5,
		LockoutDuration:   15 * time.Minute,
	}
}

// AccountService owns registration, authentication and the failed-login
// lockout state machine. All durable state lives in the repository; the
// service itself holds no locks and may be called concurrently.
type AccountService struct {
	repo   storage.Repository
	hasher hashing.PasswordHasher
	clock  clock.Clock
	policy Policy
}

// NewAccountService creates a new AccountService.
func NewAccountService(repo storage.Repository, hasher hashing.PasswordHasher, clk clock.Clock, policy Policy) *AccountService {
	return &AccountService{repo: repo, hasher: hasher, clock: clk, policy: policy}
}

// Register validates the input, checks for an existing account and persists
// a new one. The uniqueness pre-check gives a fast error; correctness under
// concurrent registration rests on the repository rejecting the duplicate
// insert, which is reported as ErrDuplicateAccount as well.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (models.Account, error) {
	if username == "" || email == "" || password == "" {
		return models.Account{}, ErrMissingFields
	}
	if len(password) < s.policy.MinPasswordLength {
		return models.Account{}, ErrPasswordTooShort
	}

	_, err := s.repo.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		return models.Account{}, ErrDuplicateAccount
	case !errors.Is(err, storage.ErrNotFound):
		return models.Account{}, repoFail("find existing account", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	acc := models.Account{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		PasswordDigest: digest,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, &acc); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return models.Account{}, ErrDuplicateAccount
		}
		return models.Account{}, repoFail("create account", err)
	}
	return sanitize(acc), nil
}

// Login authenticates an identifier/password pair. The identifier is the
// account email; identifiers without an "@" are also tried as usernames.
// Unknown identifiers and wrong passwords produce the same error.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (models.Account, error) {
	if identifier == "" || password == "" {
		return models.Account{}, ErrMissingFields
	}

	acc, err := s.repo.FindByEmail(ctx, identifier)
	if errors.Is(err, storage.ErrNotFound) && !strings.Contains(identifier, "@") {
		acc, err = s.repo.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Account{}, ErrInvalidCredentials
		}
		return models.Account{}, repoFail("find account", err)
	}

	now := s.clock.Now()
	if acc.Security.Locked(now) {
		// No password verification while locked, even for the right password.
		return models.Account{}, &AccountLockedError{RetryAfter: acc.Security.LockedUntil.Sub(now)}
	}

	if !s.hasher.Verify(password, acc.PasswordDigest) {
		return models.Account{}, s.recordFailedAttempt(ctx, acc, now)
	}

	if acc.Security.FailedLoginCount != 0 || acc.Security.LockedUntil != nil {
		acc.Security.FailedLoginCount = 0
		acc.Security.LockedUntil = nil
		acc.UpdatedAt = now
		if err := s.repo.Save(ctx, acc); err != nil {
			return models.Account{}, repoFail("reset security state", err)
		}
	}
	return sanitize(*acc), nil
}

// recordFailedAttempt advances the lockout state machine after a failed
// password check. The attempt that reaches the threshold sets LockedUntil,
// zeroes the counter and reports the lockout; earlier attempts stay generic.
func (s *AccountService) recordFailedAttempt(ctx context.Context, acc *models.Account, now time.Time) error {
	acc.Security.FailedLoginCount++
	var locked *AccountLockedError
	if acc.Security.FailedLoginCount >= s.policy.MaxFailedLogins {
		until := now.Add(s.policy.LockoutDuration)
		acc.Security.LockedUntil = &until
		acc.Security.FailedLoginCount = 0
		locked = &AccountLockedError{RetryAfter: s.policy.LockoutDuration}
	}
	acc.UpdatedAt = now
	if err := s.repo.Save(ctx, acc); err != nil {
		return repoFail("record failed login", err)
	}
	if locked != nil {
		return locked
	}
	return ErrInvalidCredentials
}

// GetByID retrieves a single account by its id.
func (s *AccountService) GetByID(ctx context.Context, id string) (models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Account{}, ErrInvalidID
	}
	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, repoFail("find account by id", err)
	}
	return sanitize(*acc), nil
}

// sanitize strips the password digest before an account leaves the service.
func sanitize(acc models.Account) models.Account {
	acc.PasswordDigest = ""
	return acc
}

func repoFail(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrRepository, op, err)
}

var _ AccountServiceProvider = (*AccountService)(nil)
