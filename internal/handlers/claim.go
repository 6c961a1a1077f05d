package handlers

import (
	domainErrors "handoff/internal/errors"
	"handoff/internal/models"
	"handoff/internal/services/claim"
	"handoff/internal/utils/pagination"
	"handoff/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// ClaimHandler exposes the claim request lifecycle.
type ClaimHandler struct {
	service claim.Service
}

func NewClaimHandler(s claim.Service) *ClaimHandler { return &ClaimHandler{service: s} }

// Submit handles POST /api/claims.
func (h *ClaimHandler) Submit(c *fiber.Ctx) error {
	var in claim.SubmitInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "invalid request")
	}

	res, err := h.service.Submit(c.UserContext(), in)
	if err != nil {
		return handleError(c, err)
	}
	if res.Existing {
		return response.Notice(c, domainErrors.ErrDuplicateClaim.Code, domainErrors.ErrDuplicateClaim.Message, res)
	}
	return response.Created(c, "claim request submitted", res)
}

func (h *ClaimHandler) Get(c *fiber.Ctx) error {
	req, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "claim request retrieved", req)
}

// Approve handles POST /api/claims/:id/approve.
func (h *ClaimHandler) Approve(c *fiber.Ctx) error {
	res, err := h.service.Approve(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "claim request approved", res)
}

func (h *ClaimHandler) Decline(c *fiber.Ctx) error {
	req, err := h.service.Decline(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "claim request declined", req)
}

// Complete handles POST /api/claims/:id/complete. The body may override
// the reward with {"points": n}.
func (h *ClaimHandler) Complete(c *fiber.Ctx) error {
	var body struct {
		Points *int `json:"points"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "invalid request")
		}
	}

	var (
		res *claim.CompleteResult
		err error
	)
	if body.Points != nil {
		res, err = h.service.CompleteWithPoints(c.UserContext(), c.Params("id"), *body.Points)
	} else {
		res, err = h.service.Complete(c.UserContext(), c.Params("id"))
	}
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "collection confirmed", res)
}

func (h *ClaimHandler) ListByItem(c *fiber.Ctx) error {
	reqs, err := h.service.ListByItem(c.UserContext(), c.Params("itemId"))
	if err != nil {
		return handleError(c, err)
	}
	return page(c, "claim requests retrieved", reqs)
}

func (h *ClaimHandler) PendingCount(c *fiber.Ctx) error {
	n, err := h.service.PendingCountByItem(c.UserContext(), c.Params("itemId"))
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "pending count retrieved", fiber.Map{"itemId": c.Params("itemId"), "pending": n})
}

func (h *ClaimHandler) ListByDonor(c *fiber.Ctx) error {
	reqs, err := h.service.ListByDonor(c.UserContext(), c.Params("donorId"))
	if err != nil {
		return handleError(c, err)
	}
	return page(c, "claim requests retrieved", reqs)
}

func (h *ClaimHandler) ListByCollector(c *fiber.Ctx) error {
	reqs, err := h.service.ListByCollector(c.UserContext(), c.Params("collectorId"))
	if err != nil {
		return handleError(c, err)
	}
	return page(c, "claim requests retrieved", reqs)
}

func page(c *fiber.Ctx, message string, reqs []models.ClaimRequest) error {
	p := pagination.ParseFromRequest(c)
	items := pagination.Slice(&p, reqs)
	return response.Success(c, message, pagination.Response(p, items))
}
