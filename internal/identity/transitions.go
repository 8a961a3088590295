package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/storefront-identity/internal/domain"
)

// Transition names a stored-status change of a customer account.
type Transition string

const (
	TransitionBlock    Transition = "block"
	TransitionUnblock  Transition = "unblock"
	TransitionSuspend  Transition = "suspend"
	TransitionActivate Transition = "activate"

	// Automatic transitions, always recorded as made by the system actor.
	TransitionLockout           Transition = "lockout"
	TransitionSuspensionExpired Transition = "suspension_expired"
)

// ReasonTooManyAttempts is recorded on lockout suspensions.
const ReasonTooManyAttempts = "Too many failed login attempts"

// ErrInvalidTransition is returned when a transition is unknown, not allowed
// from the current stored status, or missing required input.
var ErrInvalidTransition = errors.New("invalid account status transition")

// TransitionInput carries the data a transition writes.
type TransitionInput struct {
	Actor  string
	Reason string
	Until  *time.Time
	At     time.Time
}

type transitionRule struct {
	from          map[domain.AccountStatus]struct{}
	to            domain.AccountStatus
	automatic     bool
	needsReason   bool
	needsUntil    bool
	defaultReason string
}

var anyStatus = statusSet(
	domain.AccountStatusActive,
	domain.AccountStatusBlocked,
	domain.AccountStatusSuspended,
	domain.AccountStatusInactive,
)

var transitions = map[Transition]transitionRule{
	TransitionBlock: {
		from:        anyStatus,
		to:          domain.AccountStatusBlocked,
		needsReason: true,
	},
	TransitionUnblock: {
		from: anyStatus,
		to:   domain.AccountStatusActive,
	},
	TransitionSuspend: {
		from:        anyStatus,
		to:          domain.AccountStatusSuspended,
		needsReason: true,
		needsUntil:  true,
	},
	TransitionActivate: {
		from: anyStatus,
		to:   domain.AccountStatusActive,
	},
	TransitionLockout: {
		from:          statusSet(domain.AccountStatusActive, domain.AccountStatusInactive),
		to:            domain.AccountStatusSuspended,
		automatic:     true,
		needsUntil:    true,
		defaultReason: ReasonTooManyAttempts,
	},
	TransitionSuspensionExpired: {
		from:      statusSet(domain.AccountStatusSuspended),
		to:        domain.AccountStatusActive,
		automatic: true,
	},
}

// Target returns the stored status a transition leads to.
func (t Transition) Target() (domain.AccountStatus, bool) {
	rule, ok := transitions[t]
	return rule.to, ok
}

// Automatic reports whether the transition is system-driven.
func (t Transition) Automatic() bool {
	return transitions[t].automatic
}

// CanApply reports whether t is allowed from the stored status from.
func CanApply(from domain.AccountStatus, t Transition) bool {
	rule, ok := transitions[t]
	if !ok {
		return false
	}
	_, allowed := rule.from[from]
	return allowed
}

// Apply mutates account according to t and returns the previous stored
// status. SuspensionUntil is set only when entering SUSPENDED and cleared
// otherwise; the reason is cleared when returning to ACTIVE.
func Apply(account *domain.CustomerAccount, t Transition, in TransitionInput) (domain.AccountStatus, error) {
	if account == nil {
		return "", fmt.Errorf("%w: account is nil", ErrInvalidTransition)
	}
	rule, ok := transitions[t]
	if !ok {
		return "", fmt.Errorf("%w: unknown transition %q", ErrInvalidTransition, t)
	}
	from := account.StoredStatus
	if _, allowed := rule.from[from]; !allowed {
		return "", fmt.Errorf("%w: %s not allowed from %s", ErrInvalidTransition, t, from)
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = rule.defaultReason
	}
	if rule.needsReason && reason == "" {
		return "", fmt.Errorf("%w: %s requires a reason", ErrInvalidTransition, t)
	}
	if rule.needsUntil && in.Until == nil {
		return "", fmt.Errorf("%w: %s requires a suspension end", ErrInvalidTransition, t)
	}

	actor := in.Actor
	if rule.automatic || actor == "" {
		actor = domain.SystemActor
	}

	account.StoredStatus = rule.to
	account.StatusChangedAt = in.At
	account.StatusChangedBy = actor

	if rule.to == domain.AccountStatusSuspended {
		until := *in.Until
		account.SuspensionUntil = &until
	} else {
		account.SuspensionUntil = nil
	}

	if rule.to == domain.AccountStatusActive || reason == "" {
		account.StatusReason = nil
	} else {
		account.StatusReason = &reason
	}

	return from, nil
}

func statusSet(statuses ...domain.AccountStatus) map[domain.AccountStatus]struct{} {
	set := make(map[domain.AccountStatus]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}
