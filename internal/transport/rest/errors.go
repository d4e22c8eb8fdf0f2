package rest

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gurkanbulca/taskhub/internal/models"
)

const (
	msgInternal    = "Internal server error"
	msgInvalidBody = "Invalid request body"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorHandler turns errors returned by handlers and middleware into the
// {"success": false, "message": ...} body with the matching status code.
func ErrorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, msg := statusFor(err)
		if status == fiber.StatusInternalServerError {
			log.Errorw("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}
		return c.Status(status).JSON(errorResponse{Success: false, Message: msg})
	}
}

func statusFor(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	msg, expected := models.Message(err)
	if !expected {
		return fiber.StatusInternalServerError, msgInternal
	}
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return fiber.StatusUnauthorized, msg
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden, msg
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound, msg
	case errors.Is(err, models.ErrInvalidArgument):
		return fiber.StatusBadRequest, msg
	case errors.Is(err, models.ErrAlreadyExists):
		return fiber.StatusConflict, msg
	default:
		return fiber.StatusInternalServerError, msgInternal
	}
}
