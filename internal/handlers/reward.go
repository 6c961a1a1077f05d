package handlers

import (
	"handoff/internal/models"
	"handoff/internal/services/reward"
	"handoff/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type RewardHandler struct {
	service reward.Service
}

func NewRewardHandler(s reward.Service) *RewardHandler { return &RewardHandler{service: s} }

type balanceView struct {
	DonorID string               `json:"donorId"`
	Balance int                  `json:"balance"`
	History []models.RewardEntry `json:"history"`
}

// Balance handles GET /api/rewards/:donorId.
func (h *RewardHandler) Balance(c *fiber.Ctx) error {
	ctx := c.UserContext()
	donorID := c.Params("donorId")

	balance, err := h.service.Balance(ctx, donorID)
	if err != nil {
		return handleError(c, err)
	}
	history, err := h.service.History(ctx, donorID)
	if err != nil {
		return handleError(c, err)
	}
	if history == nil {
		history = []models.RewardEntry{}
	}
	return response.Success(c, "balance retrieved", balanceView{DonorID: donorID, Balance: balance, History: history})
}

func (h *RewardHandler) Collected(c *fiber.Ctx) error {
	rec, err := h.service.IsCollected(c.UserContext(), c.Params("itemId"))
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "collection status retrieved", rec)
}
