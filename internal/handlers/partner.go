package handlers

import (
	"handoff/internal/models"
	"handoff/internal/services/directory"
	"handoff/internal/services/scan"
	"handoff/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// PartnerHandler serves the partner shop scanner.
type PartnerHandler struct {
	scan      scan.Service
	directory directory.Service
}

func NewPartnerHandler(s scan.Service, dir directory.Service) *PartnerHandler {
	return &PartnerHandler{scan: s, directory: dir}
}

// DropoffIn handles POST /api/partner/items/:itemId/dropoff-in.
func (h *PartnerHandler) DropoffIn(c *fiber.Ctx) error {
	var req struct {
		scan.DropoffRequest
		Payload string `json:"payload"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request")
	}

	res, err := h.scan.DropoffIn(c.UserContext(), c.Params("itemId"), req.DropoffRequest, req.Payload)
	if err != nil {
		return handleError(c, err)
	}
	if res.ScanResult.Result == models.ScanResultRejected {
		return response.Success(c, "drop-off refused", res)
	}
	return response.Success(c, "item received", res)
}

// ClaimOut handles POST /api/partner/items/:itemId/claim-out.
func (h *PartnerHandler) ClaimOut(c *fiber.Ctx) error {
	var req struct {
		scan.ClaimOutRequest
		Payload string `json:"payload"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request")
	}

	res, err := h.scan.ClaimOut(c.UserContext(), c.Params("itemId"), req.ClaimOutRequest, req.Payload)
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "item released", res)
}

func (h *PartnerHandler) ViewItem(c *fiber.Ctx) error {
	view, err := h.scan.ViewItem(c.UserContext(), c.Params("itemId"))
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "item retrieved", view)
}

// Resolve tells the scanner which screen a payload opens.
func (h *PartnerHandler) Resolve(c *fiber.Ctx) error {
	var req struct {
		Payload string `json:"payload"`
		ShopID  string `json:"shop_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request")
	}

	res, err := h.scan.Resolve(c.UserContext(), req.Payload, req.ShopID)
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "scan resolved", res)
}

func (h *PartnerHandler) CreateShop(c *fiber.Ctx) error {
	var shop models.PartnerShop
	if err := c.BodyParser(&shop); err != nil {
		return response.BadRequest(c, "invalid request")
	}

	created, err := h.directory.CreateShop(c.UserContext(), &shop)
	if err != nil {
		return handleError(c, err)
	}
	return response.Created(c, "partner shop registered", created)
}

func (h *PartnerHandler) GetShop(c *fiber.Ctx) error {
	shop, err := h.directory.GetShop(c.UserContext(), c.Params("shopId"))
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "partner shop retrieved", shop)
}
