package handlers

import (
	"errors"

	domainErrors "handoff/internal/errors"
	"handoff/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps a domain error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case domainErrors.CodeNotFound:
		return fiber.StatusNotFound
	case domainErrors.CodeQRExpired:
		return fiber.StatusGone
	case domainErrors.CodeQRAlreadyUsed, domainErrors.CodeIllegalTransition, domainErrors.CodeDuplicateClaim:
		return fiber.StatusConflict
	case domainErrors.CodeInvalidPayload, domainErrors.CodeInvalidAmount:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// handleError writes err as an error envelope. Errors outside the domain
// taxonomy are logged and hidden behind a generic message.
func handleError(c *fiber.Ctx, err error) error {
	var de *domainErrors.DomainError
	if errors.As(err, &de) {
		return response.Error(c, statusFor(de.Code), de.Code, de.Message)
	}
	zap.L().Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return response.ServerError(c, "internal server error")
}
