package domain

import "time"

// AdminRole is derived from the admin email; it is never authoritative when stored.
type AdminRole string

const (
	AdminRoleMain AdminRole = "MAIN_ADMIN"
	AdminRoleSub  AdminRole = "SUB_ADMIN"
)

// AdminStatus controls whether an admin may log in.
type AdminStatus string

const (
	AdminStatusActive   AdminStatus = "Active"
	AdminStatusDisabled AdminStatus = "Disabled"
)

// Valid reports whether s is a known admin status.
func (s AdminStatus) Valid() bool {
	return s == AdminStatusActive || s == AdminStatusDisabled
}

// AdminAccount models a back-office administrator. StoredRole caches the last
// role resolution and must be re-derived before any authorization decision.
type AdminAccount struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	StoredRole   AdminRole
	Status       AdminStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
