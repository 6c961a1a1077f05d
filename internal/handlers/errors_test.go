package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	domainErrors "handoff/internal/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{name: "not found", err: domainErrors.ErrClaimNotFound, status: 404, code: "NOT_FOUND", message: "claim request not found"},
		{name: "expired", err: domainErrors.ErrQRExpired, status: 410, code: "QR_EXPIRED", message: "QR code has expired"},
		{name: "already used", err: domainErrors.ErrQRAlreadyUsed, status: 409, code: "QR_ALREADY_USED", message: "QR code has already been used"},
		{name: "illegal transition", err: domainErrors.ErrIllegalTransition.WithMessage("cannot approve a declined request"), status: 409, code: "ILLEGAL_TRANSITION", message: "cannot approve a declined request"},
		{name: "invalid amount", err: domainErrors.ErrInvalidAmount, status: 400, code: "INVALID_AMOUNT", message: "reward points must not be negative"},
		{name: "wrapped", err: fmt.Errorf("approve: %w", domainErrors.ErrInvalidQR), status: 400, code: "INVALID_PAYLOAD", message: "invalid QR code payload"},
		{name: "storage failure", err: errors.New("connection reset"), status: 500, code: "INTERNAL", message: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return handleError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.message, body["error"])
		})
	}
}
