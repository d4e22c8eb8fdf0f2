package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/taskhub/internal/middleware"
	"github.com/gurkanbulca/taskhub/internal/models"
)

type assignRoleRequest struct {
	Role string `json:"role"`
}

// Profile returns the caller's account.
func (h *Handler) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := h.svc.Users.Profile(ctx, middleware.ActorFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// ListUsers returns every account without password hashes.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	users, err := h.svc.Users.List(ctx, middleware.ActorFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "All User profile fetched successfully",
		"data":    users,
	})
}

// GetSingleUser returns the caller's account.
func (h *Handler) GetSingleUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := h.svc.Users.Profile(ctx, middleware.ActorFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User fetched successfully",
		"data":    user,
	})
}

// AssignRole changes the role of the user named in the path.
func (h *Handler) AssignRole(c *fiber.Ctx) error {
	var body assignRoleRequest
	if err := c.BodyParser(&body); err != nil {
		return models.BadRequest(msgInvalidBody)
	}

	ctx := c.UserContext()
	if _, err := h.svc.Roles.AssignRole(ctx, middleware.ActorFromContext(ctx), c.Params("id"), body.Role); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Role Successfully assigned"})
}
