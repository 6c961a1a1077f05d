package handlers

import (
	"handoff/internal/models"
	"handoff/internal/services/directory"
	"handoff/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type ListingHandler struct {
	directory directory.Service
}

func NewListingHandler(dir directory.Service) *ListingHandler { return &ListingHandler{directory: dir} }

func (h *ListingHandler) Create(c *fiber.Ctx) error {
	var listing models.Listing
	if err := c.BodyParser(&listing); err != nil {
		return response.BadRequest(c, "invalid request")
	}

	created, err := h.directory.CreateListing(c.UserContext(), &listing)
	if err != nil {
		return handleError(c, err)
	}
	return response.Created(c, "listing registered", created)
}

func (h *ListingHandler) Get(c *fiber.Ctx) error {
	listing, err := h.directory.GetListing(c.UserContext(), c.Params("itemId"))
	if err != nil {
		return handleError(c, err)
	}
	return response.Success(c, "listing retrieved", listing)
}
