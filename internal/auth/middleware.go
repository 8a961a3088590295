package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/identity"
	"github.com/spec-kit/storefront-identity/internal/repository"
	apperrors "github.com/spec-kit/storefront-identity/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// CustomerGate runs the lifecycle gates against a loaded customer. Passing
// gates may write back a stale stored status.
type CustomerGate interface {
	AuthorizeAction(ctx context.Context, account *domain.CustomerAccount) (identity.Resolution, error)
	AuthorizeOrder(ctx context.Context, account *domain.CustomerAccount) (identity.Resolution, error)
}

// Principal represents the authenticated caller for one request. Resolution
// and ResolvedRole are computed per request and never reused.
type Principal struct {
	SubjectType    domain.SubjectType
	Customer       *domain.CustomerAccount
	Admin          *domain.AdminAccount
	TokenRole      *domain.AdminRole
	ResolvedRole   domain.AdminRole
	Resolution     identity.Resolution
	TokenID        string
	TokenExpiresAt time.Time
}

// ActorEmail returns the email recorded as StatusChangedBy for admin actions.
func (p *Principal) ActorEmail() string {
	switch {
	case p == nil:
		return ""
	case p.Admin != nil:
		return p.Admin.Email
	case p.Customer != nil:
		return p.Customer.Email
	}
	return ""
}

// MiddlewareDependencies groups what AuthMiddleware needs to load principals.
type MiddlewareDependencies struct {
	Tokens    *TokenManager
	Revoker   TokenRevoker
	Customers repository.CustomerRepository
	Admins    repository.AdminRepository
	Gate      CustomerGate
	Roles     identity.RoleResolver
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	deps MiddlewareDependencies
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(deps MiddlewareDependencies) *AuthMiddleware {
	return &AuthMiddleware{deps: deps}
}

// Handle enforces authentication for protected routes. Customers pass the
// generic action gate, so BLOCKED customers are rejected here; disabled
// admins are treated as unauthenticated.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.deps.Tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ctx := c.UserContext()
	if m.deps.Revoker != nil {
		revoked, err := m.deps.Revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if revoked {
			return apperrors.NewUnauthorized("token revoked")
		}
	}

	principal := &Principal{
		SubjectType:    claims.Kind,
		TokenRole:      claims.Role,
		TokenID:        claims.ID,
		TokenExpiresAt: claims.ExpiresAtTime(),
	}

	switch claims.Kind {
	case domain.SubjectTypeCustomer:
		customer, err := m.deps.Customers.GetByID(ctx, claims.SubjectID())
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("customer not found")
			}
			return apperrors.MapError(err)
		}
		resolution, err := m.deps.Gate.AuthorizeAction(ctx, customer)
		if err != nil {
			return err
		}
		principal.Customer = customer
		principal.Resolution = resolution
	case domain.SubjectTypeAdmin:
		admin, err := m.deps.Admins.GetByID(ctx, claims.SubjectID())
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("admin not found")
			}
			return apperrors.MapError(err)
		}
		if admin.Status != domain.AdminStatusActive {
			return apperrors.NewUnauthorized("admin account disabled")
		}
		principal.Admin = admin
		principal.ResolvedRole = m.deps.Roles.Resolve(admin.Email)
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
