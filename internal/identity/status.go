// Package identity holds the pure rules that turn stored account state into
// what a principal is allowed to do right now. Nothing in this package
// performs I/O; write-backs are the caller's job.
package identity

import (
	"fmt"
	"time"

	"github.com/spec-kit/storefront-identity/internal/domain"
)

const (
	// DefaultInactivityDays is the login gap after which an account resolves INACTIVE.
	DefaultInactivityDays = 60

	ReasonBlockedDefault   = "Account blocked by admin"
	ReasonSuspendedDefault = "Account temporarily suspended"
	ReasonSuspensionEnded  = "Suspension period ended"
)

// Basis records which rule produced a Resolution.
type Basis string

const (
	BasisStored            Basis = "stored"
	BasisSuspensionExpired Basis = "suspension_expired"
	BasisInactivity        Basis = "inactivity"
)

// Resolution is the effective status of a customer account at one instant.
// It is computed per request and never cached.
type Resolution struct {
	Status          domain.AccountStatus
	Reason          string
	ChangedAt       time.Time
	ChangedBy       string
	SuspensionUntil *time.Time
	Basis           Basis
}

// SuspensionExpired reports whether the stored SUSPENDED status is stale and
// should be written back as ACTIVE.
func (r Resolution) SuspensionExpired() bool {
	return r.Basis == BasisSuspensionExpired
}

// Advisory is a non-blocking notice surfaced to the caller.
type Advisory struct {
	Status          domain.AccountStatus `json:"status"`
	Reason          string               `json:"reason"`
	SuspensionUntil *time.Time           `json:"suspension_until,omitempty"`
	Message         string               `json:"message"`
}

// Advisory returns a notice for SUSPENDED and INACTIVE resolutions, nil otherwise.
func (r Resolution) Advisory() *Advisory {
	switch r.Status {
	case domain.AccountStatusSuspended:
		msg := "Account is suspended"
		if r.SuspensionUntil != nil {
			msg = fmt.Sprintf("Account is suspended until %s", r.SuspensionUntil.UTC().Format(time.RFC3339))
		}
		return &Advisory{Status: r.Status, Reason: r.Reason, SuspensionUntil: r.SuspensionUntil, Message: msg}
	case domain.AccountStatusInactive:
		return &Advisory{Status: r.Status, Reason: r.Reason, Message: "Account is inactive: " + r.Reason}
	}
	return nil
}

// Policy holds the tunable windows used by the resolver.
type Policy struct {
	InactivityDays int
}

// DefaultPolicy returns the 60 day inactivity policy.
func DefaultPolicy() Policy {
	return Policy{InactivityDays: DefaultInactivityDays}
}

// ResolveStatus resolves account with the default policy.
func ResolveStatus(account *domain.CustomerAccount, now time.Time) Resolution {
	return DefaultPolicy().Resolve(account, now)
}

// Resolve computes the effective status of account at now. The first matching
// rule wins: BLOCKED, then SUSPENDED (or its expiry), then inactivity, then
// ACTIVE. Missing timestamps never expire a suspension nor mark inactivity.
func (p Policy) Resolve(account *domain.CustomerAccount, now time.Time) Resolution {
	if account == nil {
		return Resolution{Status: domain.AccountStatusActive, Basis: BasisStored}
	}

	switch account.StoredStatus {
	case domain.AccountStatusBlocked:
		return Resolution{
			Status:    domain.AccountStatusBlocked,
			Reason:    reasonOr(account, ReasonBlockedDefault),
			ChangedAt: account.StatusChangedAt,
			ChangedBy: account.StatusChangedBy,
			Basis:     BasisStored,
		}
	case domain.AccountStatusSuspended:
		until := copyTime(account.SuspensionUntil)
		if until != nil && now.After(*until) {
			return Resolution{
				Status:    domain.AccountStatusActive,
				Reason:    ReasonSuspensionEnded,
				ChangedAt: now,
				ChangedBy: domain.SystemActor,
				Basis:     BasisSuspensionExpired,
			}
		}
		return Resolution{
			Status:          domain.AccountStatusSuspended,
			Reason:          reasonOr(account, ReasonSuspendedDefault),
			ChangedAt:       account.StatusChangedAt,
			ChangedBy:       account.StatusChangedBy,
			SuspensionUntil: until,
			Basis:           BasisStored,
		}
	}

	if last := account.LastLoginAt; last != nil && !last.IsZero() && now.Sub(*last) > p.inactivityWindow() {
		return Resolution{
			Status:    domain.AccountStatusInactive,
			Reason:    p.InactivityReason(),
			ChangedAt: *last,
			ChangedBy: domain.SystemActor,
			Basis:     BasisInactivity,
		}
	}

	return Resolution{
		Status:    domain.AccountStatusActive,
		Reason:    account.Reason(),
		ChangedAt: account.StatusChangedAt,
		ChangedBy: account.StatusChangedBy,
		Basis:     BasisStored,
	}
}

// InactivityReason is the reason attached to INACTIVE resolutions.
func (p Policy) InactivityReason() string {
	return fmt.Sprintf("No activity for %d+ days", p.days())
}

func (p Policy) days() int {
	if p.InactivityDays <= 0 {
		return DefaultInactivityDays
	}
	return p.InactivityDays
}

func (p Policy) inactivityWindow() time.Duration {
	return time.Duration(p.days()) * 24 * time.Hour
}

func reasonOr(account *domain.CustomerAccount, fallback string) string {
	if r := account.Reason(); r != "" {
		return r
	}
	return fallback
}

func copyTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := *t
	return &v
}
