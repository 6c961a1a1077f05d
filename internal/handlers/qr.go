package handlers

import (
	"handoff/internal/models"
	"handoff/internal/services/directory"
	"handoff/internal/services/qr"
	"handoff/internal/utils/pagination"
	"handoff/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type QRHandler struct {
	qrService qr.Service
	directory directory.Service
}

func NewQRHandler(qrService qr.Service, dir directory.Service) *QRHandler {
	return &QRHandler{
		qrService: qrService,
		directory: dir,
	}
}

// issued pairs a code with the payload to render into the image.
type issued struct {
	QRCode  *models.QRCode `json:"qrCode"`
	Payload string         `json:"payload"`
}

// Validate checks a scanned payload without consuming it.
func (h *QRHandler) Validate(c *fiber.Ctx) error {
	var req struct {
		Payload string        `json:"payload"`
		Role    models.QRType `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request")
	}

	code, err := h.qrService.Validate(c.UserContext(), req.Payload, req.Role)
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "QR code is valid", code)
}

// GetByTransaction returns both halves of a hand-off.
func (h *QRHandler) GetByTransaction(c *fiber.Ctx) error {
	codes, err := h.qrService.GetByTransaction(c.UserContext(), c.Params("transactionId"))
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "QR codes retrieved", codes)
}

// GetUserQRCodes gets all QR codes held by a user
func (h *QRHandler) GetUserQRCodes(c *fiber.Ctx) error {
	codes, err := h.qrService.ListByUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return handleError(c, err)
	}
	p := pagination.ParseFromRequest(c)
	items := pagination.Slice(&p, codes)
	return response.Success(c, "QR codes retrieved", pagination.Response(p, items))
}

// ListByClaim handles GET /api/claims/:id/qr.
func (h *QRHandler) ListByClaim(c *fiber.Ctx) error {
	codes, err := h.qrService.ListByClaim(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "QR codes retrieved", codes)
}

// IssueStandalone mints a donor code for a listing without a claim.
func (h *QRHandler) IssueStandalone(c *fiber.Ctx) error {
	ctx := c.UserContext()
	listing, err := h.directory.GetListing(ctx, c.Params("itemId"))
	if err != nil {
		return handleError(c, err)
	}

	code, err := h.qrService.IssueStandalone(ctx, listing)
	if err != nil {
		return handleError(c, err)
	}
	payload, err := h.qrService.EncodePayload(ctx, code)
	if err != nil {
		return handleError(c, err)
	}
	return response.Created(c, "QR code generated", issued{QRCode: code, Payload: payload})
}
