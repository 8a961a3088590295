package identity

import (
	"strings"

	"github.com/spec-kit/storefront-identity/internal/domain"
)

// NormalizeEmail trims and lower-cases an email for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ResolveRole returns MAIN_ADMIN iff email matches ownerEmail, ignoring case
// and surrounding whitespace. An empty owner email matches nobody.
func ResolveRole(email, ownerEmail string) domain.AdminRole {
	owner := NormalizeEmail(ownerEmail)
	if owner != "" && NormalizeEmail(email) == owner {
		return domain.AdminRoleMain
	}
	return domain.AdminRoleSub
}

// RoleResolver binds ResolveRole to the configured owner email.
type RoleResolver struct {
	ownerEmail string
}

// NewRoleResolver builds a resolver for the given owner email.
func NewRoleResolver(ownerEmail string) RoleResolver {
	return RoleResolver{ownerEmail: NormalizeEmail(ownerEmail)}
}

// Resolve returns the role for email.
func (r RoleResolver) Resolve(email string) domain.AdminRole {
	return ResolveRole(email, r.ownerEmail)
}

// IsOwner reports whether email belongs to the owner account.
func (r RoleResolver) IsOwner(email string) bool {
	return r.Resolve(email) == domain.AdminRoleMain
}

// OwnerEmail returns the normalized owner email.
func (r RoleResolver) OwnerEmail() string {
	return r.ownerEmail
}
