// Package memory provides process-local repositories used when no database
// is configured and throughout the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/repository"
)

// CustomerRepository keeps customers in a map guarded by a mutex. Returned
// accounts are copies; callers never share state with the store.
type CustomerRepository struct {
	mu      sync.Mutex
	byID    map[string]*domain.CustomerAccount
	byEmail map[string]string
	clock   func() time.Time
}

var _ repository.CustomerRepository = (*CustomerRepository)(nil)

// NewCustomerRepository returns an empty store.
func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{
		byID:    make(map[string]*domain.CustomerAccount),
		byEmail: make(map[string]string),
		clock:   time.Now,
	}
}

func (r *CustomerRepository) Create(_ context.Context, account *domain.CustomerAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(account.Email)
	if _, exists := r.byEmail[key]; exists {
		return repository.ErrDuplicateEmail
	}

	now := r.clock()
	account.ID = uuid.NewString()
	account.LoginAttempts = 0
	account.CreatedAt = now
	account.UpdatedAt = now

	r.byID[account.ID] = cloneCustomer(account)
	r.byEmail[key] = account.ID
	return nil
}

func (r *CustomerRepository) GetByID(_ context.Context, id string) (*domain.CustomerAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneCustomer(account), nil
}

func (r *CustomerRepository) GetByEmail(_ context.Context, email string) (*domain.CustomerAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneCustomer(r.byID[id]), nil
}

func (r *CustomerRepository) UpdateStatus(_ context.Context, account *domain.CustomerAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[account.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.StoredStatus = account.StoredStatus
	stored.StatusReason = cloneString(account.StatusReason)
	stored.StatusChangedAt = account.StatusChangedAt
	stored.StatusChangedBy = account.StatusChangedBy
	stored.SuspensionUntil = cloneTime(account.SuspensionUntil)
	stored.UpdatedAt = r.clock()
	account.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *CustomerRepository) IncrementLoginAttempts(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	stored.LoginAttempts++
	stored.UpdatedAt = r.clock()
	return stored.LoginAttempts, nil
}

func (r *CustomerRepository) RecordSuccessfulLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.LoginAttempts = 0
	stored.LastLoginAt = &at
	stored.UpdatedAt = r.clock()
	return nil
}

func (r *CustomerRepository) ListExpiredSuspensions(_ context.Context, now time.Time, limit int) ([]*domain.CustomerAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*domain.CustomerAccount
	for _, account := range r.byID {
		if account.StoredStatus != domain.AccountStatusSuspended || account.SuspensionUntil == nil {
			continue
		}
		if account.SuspensionUntil.Before(now) {
			expired = append(expired, cloneCustomer(account))
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].SuspensionUntil.Before(*expired[j].SuspensionUntil)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

// Put stores account as-is, replacing any record with the same ID. It lets
// tests seed arbitrary historical state.
func (r *CustomerRepository) Put(account *domain.CustomerAccount) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if old, ok := r.byID[account.ID]; ok {
		delete(r.byEmail, emailKey(old.Email))
	}
	r.byID[account.ID] = cloneCustomer(account)
	r.byEmail[emailKey(account.Email)] = account.ID
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneCustomer(a *domain.CustomerAccount) *domain.CustomerAccount {
	c := *a
	c.StatusReason = cloneString(a.StatusReason)
	c.SuspensionUntil = cloneTime(a.SuspensionUntil)
	c.LastLoginAt = cloneTime(a.LastLoginAt)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
