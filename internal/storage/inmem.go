package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/pzaremba/site-auth-be/internal/models"
)

// InMemoryRepository is a mutex-guarded map implementation of Repository.
// It honors the same atomic insert-if-absent and case-insensitive uniqueness
// rules as the SQLite repository, which makes it a faithful stand-in for
// tests.
type InMemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

// NewInMemoryRepository creates an empty InMemoryRepository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{accounts: make(map[string]*models.Account)}
}

func (r *InMemoryRepository) Create(_ context.Context, acc *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if strings.EqualFold(existing.Username, acc.Username) || strings.EqualFold(existing.Email, acc.Email) {
			return ErrDuplicateKey
		}
	}
	cp := *acc
	r.accounts[acc.ID] = &cp
	return nil
}

func (r *InMemoryRepository) FindByUsernameOrEmail(_ context.Context, username, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if strings.EqualFold(acc.Username, username) || strings.EqualFold(acc.Email, email) {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if strings.EqualFold(acc.Username, username) {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, acc := range r.accounts {
		if strings.EqualFold(acc.Email, email) {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) FindByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc, ok := r.accounts[id]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) Save(_ context.Context, acc *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[acc.ID]; !ok {
		return ErrNotFound
	}
	cp := *acc
	r.accounts[acc.ID] = &cp
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
