package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/taskhub/internal/middleware"
	"github.com/gurkanbulca/taskhub/internal/models"
	"github.com/gurkanbulca/taskhub/internal/service"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) input() service.RegisterInput {
	return service.RegisterInput{Username: r.Username, Email: r.Email, Password: r.Password}
}

type registerAdminRequest struct {
	registerRequest
	SecretKey string `json:"secretKey"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUser creates an account with the user role.
func (h *Handler) RegisterUser(c *fiber.Ctx) error {
	var body registerRequest
	if err := c.BodyParser(&body); err != nil {
		return models.BadRequest(msgInvalidBody)
	}

	if _, err := h.svc.Auth.Register(c.UserContext(), body.input()); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully.",
	})
}

// RegisterAdmin creates an admin account when the secret key matches.
func (h *Handler) RegisterAdmin(c *fiber.Ctx) error {
	var body registerAdminRequest
	if err := c.BodyParser(&body); err != nil {
		return models.BadRequest(msgInvalidBody)
	}

	if _, err := h.svc.Auth.RegisterAdmin(c.UserContext(), body.input(), body.SecretKey); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Admin created successfully.",
	})
}

// Login verifies credentials and sets the session cookie. The token is also
// returned for clients that send it as a bearer header.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return models.BadRequest(msgInvalidBody)
	}

	session, err := h.svc.Auth.Login(c.UserContext(), body.Email, body.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		MaxAge:   int(h.cookieTTL / time.Second),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User logged in successfully",
		"token":   session.Token,
	})
}

// Logout clears the session cookie.
func (h *Handler) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := h.svc.Auth.Logout(ctx, middleware.ActorFromContext(ctx)); err != nil {
		return err
	}

	c.ClearCookie(h.cookieName)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User logged out successfully",
	})
}
