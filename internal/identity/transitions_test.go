package identity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/identity"
)

func TestApplyBlockClearsSuspension(t *testing.T) {
	account := &domain.CustomerAccount{
		StoredStatus:    domain.AccountStatusSuspended,
		SuspensionUntil: ptrTime(now.Add(time.Hour)),
	}

	from, err := identity.Apply(account, identity.TransitionBlock, identity.TransitionInput{
		Actor:  "ops@shop.test",
		Reason: "  fraud  ",
		At:     now,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AccountStatusSuspended, from)
	assert.Equal(t, domain.AccountStatusBlocked, account.StoredStatus)
	assert.Equal(t, "fraud", account.Reason())
	assert.Equal(t, "ops@shop.test", account.StatusChangedBy)
	assert.Equal(t, now, account.StatusChangedAt)
	assert.Nil(t, account.SuspensionUntil)
}

func TestApplyRequiresReason(t *testing.T) {
	for _, tr := range []identity.Transition{identity.TransitionBlock, identity.TransitionSuspend} {
		t.Run(string(tr), func(t *testing.T) {
			account := &domain.CustomerAccount{StoredStatus: domain.AccountStatusActive}
			_, err := identity.Apply(account, tr, identity.TransitionInput{Actor: "ops@shop.test", Reason: " ", Until: ptrTime(now), At: now})
			assert.ErrorIs(t, err, identity.ErrInvalidTransition)
			assert.Equal(t, domain.AccountStatusActive, account.StoredStatus)
		})
	}
}

func TestApplySuspendSetsWindow(t *testing.T) {
	account := &domain.CustomerAccount{StoredStatus: domain.AccountStatusActive}
	until := now.Add(7 * 24 * time.Hour)

	_, err := identity.Apply(account, identity.TransitionSuspend, identity.TransitionInput{
		Actor: "ops@shop.test", Reason: "spam", Until: &until, At: now,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AccountStatusSuspended, account.StoredStatus)
	require.NotNil(t, account.SuspensionUntil)
	assert.Equal(t, until, *account.SuspensionUntil)

	until = until.Add(time.Hour)
	assert.NotEqual(t, until, *account.SuspensionUntil, "stored end must not alias the input")
}

func TestApplyReturnToActiveClearsReasonAndWindow(t *testing.T) {
	for _, tr := range []identity.Transition{identity.TransitionUnblock, identity.TransitionActivate, identity.TransitionSuspensionExpired} {
		t.Run(string(tr), func(t *testing.T) {
			account := &domain.CustomerAccount{
				StoredStatus:    domain.AccountStatusSuspended,
				StatusReason:    ptrString("spam"),
				SuspensionUntil: ptrTime(now.Add(-time.Minute)),
			}
			_, err := identity.Apply(account, tr, identity.TransitionInput{Actor: "ops@shop.test", At: now})
			require.NoError(t, err)

			assert.Equal(t, domain.AccountStatusActive, account.StoredStatus)
			assert.Nil(t, account.StatusReason)
			assert.Nil(t, account.SuspensionUntil)
		})
	}
}

func TestApplyAutomaticTransitionsRecordSystemActor(t *testing.T) {
	account := &domain.CustomerAccount{StoredStatus: domain.AccountStatusActive}
	until := now.Add(24 * time.Hour)

	_, err := identity.Apply(account, identity.TransitionLockout, identity.TransitionInput{Actor: "ops@shop.test", Until: &until, At: now})
	require.NoError(t, err)

	assert.Equal(t, domain.SystemActor, account.StatusChangedBy)
	assert.Equal(t, identity.ReasonTooManyAttempts, account.Reason())
	assert.Equal(t, domain.AccountStatusSuspended, account.StoredStatus)
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from  domain.AccountStatus
		tr    identity.Transition
		allow bool
	}{
		{domain.AccountStatusActive, identity.TransitionLockout, true},
		{domain.AccountStatusInactive, identity.TransitionLockout, true},
		{domain.AccountStatusSuspended, identity.TransitionLockout, false},
		{domain.AccountStatusBlocked, identity.TransitionLockout, false},
		{domain.AccountStatusSuspended, identity.TransitionSuspensionExpired, true},
		{domain.AccountStatusActive, identity.TransitionSuspensionExpired, false},
		{domain.AccountStatusBlocked, identity.TransitionUnblock, true},
		{domain.AccountStatusBlocked, identity.TransitionSuspend, true},
		{domain.AccountStatusInactive, identity.TransitionActivate, true},
		{domain.AccountStatusActive, identity.Transition("promote"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.tr), func(t *testing.T) {
			assert.Equal(t, tt.allow, identity.CanApply(tt.from, tt.tr))
		})
	}
}

func TestApplyRejectsDisallowedSource(t *testing.T) {
	until := now.Add(time.Hour)
	account := &domain.CustomerAccount{StoredStatus: domain.AccountStatusSuspended, SuspensionUntil: &until}

	_, err := identity.Apply(account, identity.TransitionLockout, identity.TransitionInput{Until: &until, At: now})
	assert.ErrorIs(t, err, identity.ErrInvalidTransition)
	assert.Equal(t, until, *account.SuspensionUntil)
}

func TestTransitionMetadata(t *testing.T) {
	target, ok := identity.TransitionSuspend.Target()
	assert.True(t, ok)
	assert.Equal(t, domain.AccountStatusSuspended, target)

	assert.True(t, identity.TransitionLockout.Automatic())
	assert.False(t, identity.TransitionBlock.Automatic())

	_, ok = identity.Transition("nope").Target()
	assert.False(t, ok)
}
