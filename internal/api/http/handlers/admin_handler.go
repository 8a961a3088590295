package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-identity/internal/api/dto"
	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/service"
)

// AdminHandler exposes admin login and admin management.
type AdminHandler struct {
	auth   *service.AuthService
	admins *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService, adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{auth: authService, admins: adminService}
}

// Login handles POST /auth/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.auth.LoginAdmin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.AdminLoginResponse{
			AuthResponse: dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
			Role:         session.Role,
			Admin:        dto.NewAdminView(session.Admin),
		},
	})
}

// List handles GET /admin-management/admins.
func (h *AdminHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	admins, err := h.admins.List(c.UserContext(), adminActor(p))
	if err != nil {
		return err
	}
	views := make([]dto.AdminView, 0, len(admins))
	for _, admin := range admins {
		views = append(views, dto.NewAdminView(admin))
	}
	return c.JSON(fiber.Map{"data": views})
}

// Get handles GET /admin-management/admins/:id.
func (h *AdminHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	admin, err := h.admins.Get(c.UserContext(), adminActor(p), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdminView(admin)})
}

// Create handles POST /admin-management/admins.
func (h *AdminHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateAdminRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	admin, err := h.admins.Create(c.UserContext(), adminActor(p), service.CreateAdminInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Status:   domain.AdminStatus(req.Status),
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAdminView(admin)})
}

// Update handles PUT /admin-management/admins/:id.
func (h *AdminHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateAdminRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := service.UpdateAdminInput{Name: req.Name, Email: req.Email, Password: req.Password}
	if req.Status != nil {
		status := domain.AdminStatus(*req.Status)
		in.Status = &status
	}
	admin, err := h.admins.Update(c.UserContext(), adminActor(p), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdminView(admin)})
}

// Delete handles DELETE /admin-management/admins/:id.
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.admins.Delete(c.UserContext(), adminActor(p), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}
