package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-identity/internal/api/dto"
	"github.com/spec-kit/storefront-identity/internal/service"
)

// UsersHandler exposes auth and self-service endpoints for customers.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.CustomerRegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.RegisterCustomer(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewCustomerView(session.Customer, session.Resolution),
			"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.LoginCustomer(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.CustomerLoginResponse{
			AuthResponse: dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
			Status:       session.Resolution.Status,
			Warning:      session.Advisory,
			User:         dto.NewCustomerView(session.Customer, session.Resolution),
		},
	})
}

// Logout handles POST /auth/logout for any authenticated principal.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), p.TokenID, p.TokenExpiresAt); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// Status handles GET /account/status.
func (h *UsersHandler) Status(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountStatusResponse(p.Resolution)})
}

// OrderEligibility handles GET /account/order-eligibility. Reaching it means
// the order gate passed.
func (h *UsersHandler) OrderEligibility(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	resp := dto.NewAccountStatusResponse(p.Resolution)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"eligible": true,
		"status":   resp.Status,
		"warning":  resp.Warning,
	}})
}
