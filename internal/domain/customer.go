package domain

import "time"

// AccountStatus represents lifecycle states for a customer account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusBlocked   AccountStatus = "BLOCKED"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
	AccountStatusInactive  AccountStatus = "INACTIVE"
)

// SystemActor is recorded as StatusChangedBy for automatic transitions.
const SystemActor = "system"

// Valid reports whether s is one of the known statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusBlocked, AccountStatusSuspended, AccountStatusInactive:
		return true
	}
	return false
}

// CustomerAccount is the stored record of a registered customer.
// SuspensionUntil is only set while StoredStatus is SUSPENDED.
type CustomerAccount struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	StoredStatus    AccountStatus
	StatusReason    *string
	StatusChangedAt time.Time
	StatusChangedBy string
	SuspensionUntil *time.Time
	LastLoginAt     *time.Time
	LoginAttempts   int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Reason returns the stored status reason or an empty string.
func (c *CustomerAccount) Reason() string {
	if c == nil || c.StatusReason == nil {
		return ""
	}
	return *c.StatusReason
}
