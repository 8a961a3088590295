package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/identity"
)

func TestResolveRole(t *testing.T) {
	const owner = "owner@x.com"

	tests := []struct {
		name  string
		email string
		owner string
		want  domain.AdminRole
	}{
		{name: "owner email", email: owner, owner: owner, want: domain.AdminRoleMain},
		{name: "other email", email: "anyone@x.com", owner: owner, want: domain.AdminRoleSub},
		{name: "case insensitive", email: "Owner@X.com", owner: owner, want: domain.AdminRoleMain},
		{name: "trimmed", email: "  owner@x.com \t", owner: owner, want: domain.AdminRoleMain},
		{name: "configured owner with odd case", email: "owner@x.com", owner: " OWNER@x.COM ", want: domain.AdminRoleMain},
		{name: "prefix is not a match", email: "owner@x.com.evil", owner: owner, want: domain.AdminRoleSub},
		{name: "empty owner matches nobody", email: "", owner: "", want: domain.AdminRoleSub},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identity.ResolveRole(tt.email, tt.owner))
		})
	}
}

func TestRoleResolver(t *testing.T) {
	resolver := identity.NewRoleResolver(" Owner@Shop.test ")

	assert.Equal(t, "owner@shop.test", resolver.OwnerEmail())
	assert.True(t, resolver.IsOwner("OWNER@shop.test"))
	assert.False(t, resolver.IsOwner("helper@shop.test"))
	assert.Equal(t, domain.AdminRoleSub, resolver.Resolve("helper@shop.test"))
}
