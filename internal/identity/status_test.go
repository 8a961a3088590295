package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/identity"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrString(s string) *string     { return &s }

func TestResolveStatus(t *testing.T) {
	changedAt := now.Add(-48 * time.Hour)

	tests := []struct {
		name        string
		account     domain.CustomerAccount
		wantStatus  domain.AccountStatus
		wantReason  string
		wantBasis   identity.Basis
		wantBy      string
		wantChanged time.Time
		wantUntil   *time.Time
	}{
		{
			name: "blocked with stored reason",
			account: domain.CustomerAccount{
				StoredStatus:    domain.AccountStatusBlocked,
				StatusReason:    ptrString("chargeback fraud"),
				StatusChangedAt: changedAt,
				StatusChangedBy: "ops@shop.test",
			},
			wantStatus:  domain.AccountStatusBlocked,
			wantReason:  "chargeback fraud",
			wantBasis:   identity.BasisStored,
			wantBy:      "ops@shop.test",
			wantChanged: changedAt,
		},
		{
			name:        "blocked without reason gets default",
			account:     domain.CustomerAccount{StoredStatus: domain.AccountStatusBlocked, StatusChangedAt: changedAt},
			wantStatus:  domain.AccountStatusBlocked,
			wantReason:  identity.ReasonBlockedDefault,
			wantBasis:   identity.BasisStored,
			wantChanged: changedAt,
		},
		{
			name: "blocked dominates inactivity",
			account: domain.CustomerAccount{
				StoredStatus: domain.AccountStatusBlocked,
				LastLoginAt:  ptrTime(now.AddDate(0, 0, -90)),
			},
			wantStatus: domain.AccountStatusBlocked,
			wantReason: identity.ReasonBlockedDefault,
			wantBasis:  identity.BasisStored,
		},
		{
			name: "suspension still running",
			account: domain.CustomerAccount{
				StoredStatus:    domain.AccountStatusSuspended,
				SuspensionUntil: ptrTime(now.Add(time.Hour)),
				StatusChangedAt: changedAt,
				StatusChangedBy: "ops@shop.test",
			},
			wantStatus:  domain.AccountStatusSuspended,
			wantReason:  identity.ReasonSuspendedDefault,
			wantBasis:   identity.BasisStored,
			wantBy:      "ops@shop.test",
			wantChanged: changedAt,
			wantUntil:   ptrTime(now.Add(time.Hour)),
		},
		{
			name: "suspension ended one second ago",
			account: domain.CustomerAccount{
				StoredStatus:    domain.AccountStatusSuspended,
				StatusReason:    ptrString("abuse"),
				SuspensionUntil: ptrTime(now.Add(-time.Second)),
			},
			wantStatus:  domain.AccountStatusActive,
			wantReason:  identity.ReasonSuspensionEnded,
			wantBasis:   identity.BasisSuspensionExpired,
			wantBy:      domain.SystemActor,
			wantChanged: now,
		},
		{
			name: "suspension ending exactly now is still running",
			account: domain.CustomerAccount{
				StoredStatus:    domain.AccountStatusSuspended,
				SuspensionUntil: ptrTime(now),
			},
			wantStatus: domain.AccountStatusSuspended,
			wantReason: identity.ReasonSuspendedDefault,
			wantBasis:  identity.BasisStored,
			wantUntil:  ptrTime(now),
		},
		{
			name:       "suspension without end never expires",
			account:    domain.CustomerAccount{StoredStatus: domain.AccountStatusSuspended},
			wantStatus: domain.AccountStatusSuspended,
			wantReason: identity.ReasonSuspendedDefault,
			wantBasis:  identity.BasisStored,
		},
		{
			name: "suspension dominates inactivity",
			account: domain.CustomerAccount{
				StoredStatus:    domain.AccountStatusSuspended,
				SuspensionUntil: ptrTime(now.Add(time.Hour)),
				LastLoginAt:     ptrTime(now.AddDate(0, 0, -100)),
			},
			wantStatus: domain.AccountStatusSuspended,
			wantReason: identity.ReasonSuspendedDefault,
			wantBasis:  identity.BasisStored,
			wantUntil:  ptrTime(now.Add(time.Hour)),
		},
		{
			name: "61 days without login is inactive",
			account: domain.CustomerAccount{
				StoredStatus: domain.AccountStatusActive,
				LastLoginAt:  ptrTime(now.AddDate(0, 0, -61)),
			},
			wantStatus:  domain.AccountStatusInactive,
			wantReason:  "No activity for 60+ days",
			wantBasis:   identity.BasisInactivity,
			wantBy:      domain.SystemActor,
			wantChanged: now.AddDate(0, 0, -61),
		},
		{
			name: "59 days without login is active",
			account: domain.CustomerAccount{
				StoredStatus: domain.AccountStatusActive,
				LastLoginAt:  ptrTime(now.AddDate(0, 0, -59)),
			},
			wantStatus: domain.AccountStatusActive,
			wantBasis:  identity.BasisStored,
		},
		{
			name:       "missing last login is not inactive",
			account:    domain.CustomerAccount{StoredStatus: domain.AccountStatusActive},
			wantStatus: domain.AccountStatusActive,
			wantBasis:  identity.BasisStored,
		},
		{
			name: "active keeps stored reason",
			account: domain.CustomerAccount{
				StoredStatus: domain.AccountStatusActive,
				StatusReason: ptrString("restored after review"),
			},
			wantStatus: domain.AccountStatusActive,
			wantReason: "restored after review",
			wantBasis:  identity.BasisStored,
		},
		{
			name:       "unknown stored status falls through to active",
			account:    domain.CustomerAccount{StoredStatus: "GARBAGE"},
			wantStatus: domain.AccountStatusActive,
			wantBasis:  identity.BasisStored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := tt.account
			got := identity.ResolveStatus(&account, now)

			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantReason, got.Reason)
			assert.Equal(t, tt.wantBasis, got.Basis)
			assert.Equal(t, tt.wantBy, got.ChangedBy)
			assert.True(t, tt.wantChanged.Equal(got.ChangedAt), "changedAt %s, want %s", got.ChangedAt, tt.wantChanged)
			if tt.wantUntil == nil {
				assert.Nil(t, got.SuspensionUntil)
			} else {
				require.NotNil(t, got.SuspensionUntil)
				assert.True(t, tt.wantUntil.Equal(*got.SuspensionUntil))
			}
		})
	}
}

func TestResolveStatusIsPure(t *testing.T) {
	until := now.Add(-time.Second)
	account := &domain.CustomerAccount{
		StoredStatus:    domain.AccountStatusSuspended,
		StatusReason:    ptrString("abuse"),
		SuspensionUntil: &until,
		LoginAttempts:   3,
	}
	before := *account

	first := identity.ResolveStatus(account, now)
	second := identity.ResolveStatus(account, now)

	assert.Equal(t, first, second)
	assert.Equal(t, before, *account, "resolution must not mutate the stored record")
	assert.Equal(t, domain.AccountStatusSuspended, account.StoredStatus)
}

func TestResolveStatusDoesNotAliasSuspensionUntil(t *testing.T) {
	until := now.Add(time.Hour)
	account := &domain.CustomerAccount{StoredStatus: domain.AccountStatusSuspended, SuspensionUntil: &until}

	got := identity.ResolveStatus(account, now)
	require.NotNil(t, got.SuspensionUntil)
	*got.SuspensionUntil = now.Add(-time.Hour)

	assert.True(t, until.Equal(*account.SuspensionUntil))
}

func TestResolveStatusNilAccount(t *testing.T) {
	got := identity.ResolveStatus(nil, now)
	assert.Equal(t, domain.AccountStatusActive, got.Status)
}

func TestPolicyCustomInactivityWindow(t *testing.T) {
	policy := identity.Policy{InactivityDays: 30}
	account := &domain.CustomerAccount{
		StoredStatus: domain.AccountStatusActive,
		LastLoginAt:  ptrTime(now.AddDate(0, 0, -31)),
	}

	got := policy.Resolve(account, now)
	assert.Equal(t, domain.AccountStatusInactive, got.Status)
	assert.Equal(t, "No activity for 30+ days", got.Reason)
}

func TestResolutionAdvisory(t *testing.T) {
	until := now.Add(24 * time.Hour)

	suspended := identity.Resolution{Status: domain.AccountStatusSuspended, Reason: "abuse", SuspensionUntil: &until}
	adv := suspended.Advisory()
	require.NotNil(t, adv)
	assert.Equal(t, domain.AccountStatusSuspended, adv.Status)
	assert.Contains(t, adv.Message, until.Format(time.RFC3339))

	inactive := identity.Resolution{Status: domain.AccountStatusInactive, Reason: "No activity for 60+ days"}
	adv = inactive.Advisory()
	require.NotNil(t, adv)
	assert.Equal(t, domain.AccountStatusInactive, adv.Status)

	assert.Nil(t, identity.Resolution{Status: domain.AccountStatusActive}.Advisory())
	assert.Nil(t, identity.Resolution{Status: domain.AccountStatusBlocked}.Advisory())
}
