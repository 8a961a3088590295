package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-identity/internal/domain"
	apperrors "github.com/spec-kit/storefront-identity/pkg/util/errorutil"
)

// RequireCustomer ensures a customer is authenticated.
func RequireCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType != domain.SubjectTypeCustomer || principal.Customer == nil {
			return apperrors.NewForbidden()
		}
		return c.Next()
	}
}

// RequireAdmin ensures any active admin is authenticated.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType != domain.SubjectTypeAdmin || principal.Admin == nil {
			return apperrors.NewForbidden()
		}
		return c.Next()
	}
}

// RequireMainAdmin admits only the owner. The role pinned in the token at
// login and the role re-derived from the admin's current email must both be
// MAIN_ADMIN.
func RequireMainAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType != domain.SubjectTypeAdmin || principal.Admin == nil ||
			principal.TokenRole == nil || *principal.TokenRole != domain.AdminRoleMain ||
			principal.ResolvedRole != domain.AdminRoleMain {
			return apperrors.NewForbidden()
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (customer or admin).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// OrderGate runs the order-placement gate for the authenticated customer.
// Order handlers mount behind it.
func OrderGate(gate CustomerGate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType != domain.SubjectTypeCustomer || principal.Customer == nil {
			return apperrors.NewForbidden()
		}
		resolution, err := gate.AuthorizeOrder(c.UserContext(), principal.Customer)
		if err != nil {
			return err
		}
		principal.Resolution = resolution
		return c.Next()
	}
}
