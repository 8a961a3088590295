package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/storefront-identity/internal/config"
	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/events"
	"github.com/spec-kit/storefront-identity/internal/repository/memory"
	apperrors "github.com/spec-kit/storefront-identity/pkg/util/errorutil"
)

const ownerEmail = "owner@shop.test"

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock { return &fakeClock{t: baseTime} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func recordEvents(d events.Dispatcher, types ...events.EventType) *eventRecorder {
	r := &eventRecorder{}
	for _, t := range types {
		d.Subscribe(t, func(_ context.Context, e events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
			return nil
		})
	}
	return r
}

func (r *eventRecorder) All() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            bcrypt.MinCost,
			OwnerEmail:            ownerEmail,
		},
		Lifecycle: config.LifecycleConfig{
			MaxFailedAttempts:     5,
			LockoutDuration:       24 * time.Hour,
			InactivityDays:        60,
			DefaultSuspensionDays: 7,
		},
		Worker: config.WorkerConfig{ReconcileBatchSize: 100},
	}
}

func seedCustomer(repo *memory.CustomerRepository, mutate func(*domain.CustomerAccount)) *domain.CustomerAccount {
	account := &domain.CustomerAccount{
		Name:            "Ana",
		Email:           "ana@shop.test",
		StoredStatus:    domain.AccountStatusActive,
		StatusChangedAt: baseTime.Add(-30 * 24 * time.Hour),
		StatusChangedBy: domain.SystemActor,
	}
	if mutate != nil {
		mutate(account)
	}
	repo.Put(account)
	return account
}

func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, code, domainErr.Code, domainErr.Message)
	return domainErr
}

func ptrTime(t time.Time) *time.Time { return &t }
func ptrString(s string) *string     { return &s }
func ptrInt(i int) *int              { return &i }
