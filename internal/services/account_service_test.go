package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pzaremba/site-auth-be/internal/hashing"
	"github.com/pzaremba/site-auth-be/internal/services"
	"github.com/pzaremba/site-auth-be/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*services.AccountService, *storage.InMemoryRepository, *fakeClock) {
	t.Helper()
	repo := storage.NewInMemoryRepository()
	clk := newFakeClock()
	svc := services.NewAccountService(repo, hashing.NewBcryptHasher(bcrypt.MinCost), clk, services.DefaultPolicy())
	return svc, repo, clk
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name                      string
		username, email, password string
		wantErr                   error
	}{
		{"missing username", "", "a@x.com", "secret1", services.ErrMissingFields},
		{"missing email", "alice", "", "secret1", services.ErrMissingFields},
		{"missing password", "alice", "a@x.com", "", services.ErrMissingFields},
		{"short password", "alice", "a@x.com", "five5", services.ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_RoundTrip(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, created.PasswordDigest)

	fetched, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", fetched.Username)
	assert.Equal(t, "a@x.com", fetched.Email)
	assert.Empty(t, fetched.PasswordDigest)

	// The stored record holds a real digest, never the plaintext.
	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordDigest)
	assert.NotEqual(t, "secret1", stored.PasswordDigest)
	assert.Equal(t, 0, stored.Security.FailedLoginCount)
	assert.Nil(t, stored.Security.LockedUntil)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	// Either colliding field yields the same generic error.
	_, err = svc.Register(ctx, "alice", "b@x.com", "other12")
	assert.ErrorIs(t, err, services.ErrDuplicateAccount)
	_, err = svc.Register(ctx, "bob", "a@x.com", "other12")
	assert.ErrorIs(t, err, services.ErrDuplicateAccount)
	_, err = svc.Register(ctx, "ALICE", "c@x.com", "other12")
	assert.ErrorIs(t, err, services.ErrDuplicateAccount)
}

func TestRegister_ConcurrentDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, username := range []string{"alice", "bob"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, username, "shared@x.com", "secret1")
		}()
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, services.ErrDuplicateAccount):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok, "exactly one registration must win")
	assert.Equal(t, 1, dup)
}

func TestLogin_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "", "secret1")
	assert.ErrorIs(t, err, services.ErrMissingFields)
	_, err = svc.Login(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, services.ErrMissingFields)
}

func TestLogin_UnknownIdentifier(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestLogin_Success(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	acc, err := svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acc.ID)
	assert.Equal(t, "alice", acc.Username)
	assert.Empty(t, acc.PasswordDigest)
}

func TestLogin_ByUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	acc, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", acc.Email)

	// Wrong passwords fail the same way regardless of identifier kind.
	_, err = svc.Login(ctx, "alice", "wrong12")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestLogin_FailedAttemptsAreCounted(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err = svc.Login(ctx, "a@x.com", "wrong12")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)

		stored, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, i, stored.Security.FailedLoginCount)
		assert.Nil(t, stored.Security.LockedUntil)
	}

	// A successful login resets the counter.
	_, err = svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Security.FailedLoginCount)
}

func TestLogin_LockoutAfterThreshold(t *testing.T) {
	svc, repo, clk := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = svc.Login(ctx, "a@x.com", "wrong12")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	}

	// The fifth failure crosses the threshold and reports the lockout.
	_, err = svc.Login(ctx, "a@x.com", "wrong12")
	var locked *services.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 15*time.Minute, locked.RetryAfter)

	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Security.LockedUntil)
	assert.True(t, stored.Security.LockedUntil.After(clk.Now()))
	assert.Equal(t, 0, stored.Security.FailedLoginCount)

	// Even the correct password is rejected while locked.
	_, err = svc.Login(ctx, "a@x.com", "secret1")
	require.ErrorAs(t, err, &locked)
	assert.Greater(t, locked.RetryAfter, time.Duration(0))

	// Remaining lockout shrinks as time passes.
	clk.Advance(10 * time.Minute)
	_, err = svc.Login(ctx, "a@x.com", "secret1")
	require.ErrorAs(t, err, &locked)
	assert.LessOrEqual(t, locked.RetryAfter, 5*time.Minute)
}

func TestLogin_LockoutExpires(t *testing.T) {
	svc, repo, clk := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice", "a@x.com", "secret1")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, "a@x.com", "wrong12")
	}

	clk.Advance(15*time.Minute + time.Second)

	acc, err := svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acc.ID)

	// Lockout state is fully cleared after the successful login.
	stored, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Security.FailedLoginCount)
	assert.Nil(t, stored.Security.LockedUntil)
}

func TestGetByID_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, services.ErrInvalidID)

	_, err = svc.GetByID(ctx, "b2f7f6a0-6f3e-4c42-9a31-1f6fdfb3a111")
	assert.ErrorIs(t, err, services.ErrNotFound)
}
