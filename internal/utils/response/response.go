package response

import (
	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

// Notice is a 200 response that also carries a domain code the caller can
// branch on.
func Notice(c *fiber.Ctx, code, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"code":    code,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, "INVALID_PAYLOAD", message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, "INTERNAL", message)
}

func TooManyRequests(c *fiber.Ctx) error {
	return Error(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
}
