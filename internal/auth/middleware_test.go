package auth

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/identity"
	"github.com/spec-kit/storefront-identity/internal/repository/memory"
	apperrors "github.com/spec-kit/storefront-identity/pkg/util/errorutil"
)

const testOwner = "owner@shop.test"

type stubGate struct {
	actionErr error
	orderErr  error
	orders    int
}

func (g *stubGate) AuthorizeAction(context.Context, *domain.CustomerAccount) (identity.Resolution, error) {
	return identity.Resolution{Status: domain.AccountStatusActive}, g.actionErr
}

func (g *stubGate) AuthorizeOrder(context.Context, *domain.CustomerAccount) (identity.Resolution, error) {
	g.orders++
	return identity.Resolution{Status: domain.AccountStatusActive}, g.orderErr
}

type stubRevoker struct {
	revoked map[string]bool
	err     error
}

func (r *stubRevoker) Revoke(_ context.Context, id string, _ time.Time) error {
	r.revoked[id] = true
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	return r.revoked[id], r.err
}

type middlewareFixture struct {
	tokens    *TokenManager
	revoker   *stubRevoker
	gate      *stubGate
	customers *memory.CustomerRepository
	admins    *memory.AdminRepository
	mw        *AuthMiddleware
}

func newMiddlewareFixture() *middlewareFixture {
	f := &middlewareFixture{
		tokens:    NewTokenManager("secret", time.Hour),
		revoker:   &stubRevoker{revoked: map[string]bool{}},
		gate:      &stubGate{},
		customers: memory.NewCustomerRepository(),
		admins:    memory.NewAdminRepository(),
	}
	f.mw = NewAuthMiddleware(MiddlewareDependencies{
		Tokens:    f.tokens,
		Revoker:   f.revoker,
		Customers: f.customers,
		Admins:    f.admins,
		Gate:      f.gate,
		Roles:     identity.NewRoleResolver(testOwner),
	})
	return f
}

func (f *middlewareFixture) app(guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)
		return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
	}})
	chain := append([]fiber.Handler{f.mw.Handle}, guards...)
	chain = append(chain, func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"actor": principal.ActorEmail()})
	})
	app.Get("/protected", chain...)
	return app
}

func (f *middlewareFixture) customerToken(t *testing.T, mutate func(*domain.CustomerAccount)) string {
	t.Helper()
	account := &domain.CustomerAccount{Name: "Ana", Email: "ana@shop.test", StoredStatus: domain.AccountStatusActive}
	if mutate != nil {
		mutate(account)
	}
	f.customers.Put(account)
	token, _, err := f.tokens.GenerateToken(account.ID, domain.SubjectTypeCustomer, nil)
	require.NoError(t, err)
	return token
}

func (f *middlewareFixture) adminToken(t *testing.T, email string, status domain.AdminStatus, tokenRole domain.AdminRole) string {
	t.Helper()
	admin := &domain.AdminAccount{Name: "Admin", Email: email, Status: status, StoredRole: tokenRole}
	f.admins.Put(admin)
	token, _, err := f.tokens.GenerateToken(admin.ID, domain.SubjectTypeAdmin, &tokenRole)
	require.NoError(t, err)
	return token
}

func call(t *testing.T, app *fiber.App, authorization string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestAuthMiddlewareRejectsBadCredentials(t *testing.T) {
	f := newMiddlewareFixture()
	app := f.app()

	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"empty bearer": "Bearer ",
		"garbage":      "Bearer not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			status, body := call(t, app, header)
			assert.Equal(t, fiber.StatusUnauthorized, status)
			assert.Equal(t, apperrors.CodeUnauthorized, body["code"])
		})
	}
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	f := newMiddlewareFixture()
	token := f.customerToken(t, nil)
	claims, err := f.tokens.ParseToken(token)
	require.NoError(t, err)
	f.revoker.revoked[claims.ID] = true

	status, body := call(t, f.app(), "Bearer "+token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeUnauthorized, body["code"])
}

func TestAuthMiddlewareFailsClosedWhenRevocationUnavailable(t *testing.T) {
	f := newMiddlewareFixture()
	token := f.customerToken(t, nil)
	f.revoker.err = assert.AnError

	status, _ := call(t, f.app(), "Bearer "+token)
	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestAuthMiddlewareRunsCustomerGate(t *testing.T) {
	f := newMiddlewareFixture()
	token := f.customerToken(t, nil)

	status, body := call(t, f.app(RequireCustomer()), "Bearer "+token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ana@shop.test", body["actor"])

	f.gate.actionErr = apperrors.NewAccountBlocked("fraud", time.Time{})
	status, body = call(t, f.app(RequireCustomer()), "Bearer "+token)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeAccountBlocked, body["code"])
}

func TestAuthMiddlewareUnknownSubject(t *testing.T) {
	f := newMiddlewareFixture()
	token, _, err := f.tokens.GenerateToken("6f1f3c1e-8f0a-4d55-9f43-0a3f4f7b1e11", domain.SubjectTypeCustomer, nil)
	require.NoError(t, err)

	status, _ := call(t, f.app(), "Bearer "+token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestDisabledAdminIsUnauthenticated(t *testing.T) {
	f := newMiddlewareFixture()
	token := f.adminToken(t, "off@shop.test", domain.AdminStatusDisabled, domain.AdminRoleSub)

	status, _ := call(t, f.app(RequireAdmin()), "Bearer "+token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRoleGuards(t *testing.T) {
	f := newMiddlewareFixture()
	customer := f.customerToken(t, nil)
	owner := f.adminToken(t, testOwner, domain.AdminStatusActive, domain.AdminRoleMain)
	sub := f.adminToken(t, "helper@shop.test", domain.AdminStatusActive, domain.AdminRoleSub)
	forged := f.adminToken(t, "former@shop.test", domain.AdminStatusActive, domain.AdminRoleMain)
	pinnedSub := f.adminToken(t, "OWNER@shop.test", domain.AdminStatusActive, domain.AdminRoleSub)

	tests := []struct {
		name   string
		guard  fiber.Handler
		token  string
		status int
	}{
		{"customer passes customer guard", RequireCustomer(), customer, fiber.StatusOK},
		{"admin fails customer guard", RequireCustomer(), sub, fiber.StatusForbidden},
		{"customer fails admin guard", RequireAdmin(), customer, fiber.StatusForbidden},
		{"sub admin passes admin guard", RequireAdmin(), sub, fiber.StatusOK},
		{"owner passes main guard", RequireMainAdmin(), owner, fiber.StatusOK},
		{"sub admin fails main guard", RequireMainAdmin(), sub, fiber.StatusForbidden},
		{"stale main token fails main guard", RequireMainAdmin(), forged, fiber.StatusForbidden},
		{"token pinned to sub fails main guard", RequireMainAdmin(), pinnedSub, fiber.StatusForbidden},
		{"customer passes any-role guard", RequireAnyRole(), customer, fiber.StatusOK},
		{"admin passes any-role guard", RequireAnyRole(), sub, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := call(t, f.app(tt.guard), "Bearer "+tt.token)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestGuardsWithoutPrincipal(t *testing.T) {
	for name, guard := range map[string]fiber.Handler{
		"customer": RequireCustomer(),
		"admin":    RequireAdmin(),
		"main":     RequireMainAdmin(),
		"any":      RequireAnyRole(),
		"order":    OrderGate(&stubGate{}),
	} {
		t.Run(name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
			}})
			app.Get("/", guard, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestOrderGate(t *testing.T) {
	f := newMiddlewareFixture()
	token := f.customerToken(t, nil)

	status, _ := call(t, f.app(OrderGate(f.gate)), "Bearer "+token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, f.gate.orders)

	until := time.Now().Add(time.Hour)
	f.gate.orderErr = apperrors.NewAccountSuspended("spam", &until)
	status, body := call(t, f.app(OrderGate(f.gate)), "Bearer "+token)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeAccountSuspended, body["code"])

	admin := f.adminToken(t, "helper@shop.test", domain.AdminStatusActive, domain.AdminRoleSub)
	status, _ = call(t, f.app(OrderGate(f.gate)), "Bearer "+admin)
	assert.Equal(t, fiber.StatusForbidden, status)
}
