package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-identity/internal/api/dto"
	"github.com/spec-kit/storefront-identity/internal/service"
)

// CustomerStatusHandler exposes admin-initiated customer transitions.
type CustomerStatusHandler struct {
	lifecycle *service.LifecycleService
}

// NewCustomerStatusHandler constructs handler.
func NewCustomerStatusHandler(lifecycle *service.LifecycleService) *CustomerStatusHandler {
	return &CustomerStatusHandler{lifecycle: lifecycle}
}

// Block handles PUT /users/:id/block.
func (h *CustomerStatusHandler) Block(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.BlockRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	account, err := h.lifecycle.Block(c.UserContext(), p.ActorEmail(), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStoredStatusView(account)})
}

// Suspend handles PUT /users/:id/suspend.
func (h *CustomerStatusHandler) Suspend(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.SuspendRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	account, err := h.lifecycle.Suspend(c.UserContext(), p.ActorEmail(), c.Params("id"), req.Reason, req.Days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStoredStatusView(account)})
}

// Unblock handles PUT /users/:id/unblock.
func (h *CustomerStatusHandler) Unblock(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	account, err := h.lifecycle.Unblock(c.UserContext(), p.ActorEmail(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStoredStatusView(account)})
}

// Activate handles PUT /users/:id/activate.
func (h *CustomerStatusHandler) Activate(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	account, err := h.lifecycle.Activate(c.UserContext(), p.ActorEmail(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStoredStatusView(account)})
}

// Status handles GET /users/:id/status.
func (h *CustomerStatusHandler) Status(c *fiber.Ctx) error {
	report, err := h.lifecycle.Inspect(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
