// Package routes defines the API routing configuration.
// It wires the exchange handlers to their HTTP paths.
package routes

import (
	"time"

	"handoff/internal/handlers"
	"handoff/internal/services/claim"
	"handoff/internal/services/directory"
	"handoff/internal/services/qr"
	"handoff/internal/services/reward"
	"handoff/internal/services/scan"
	"handoff/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the collaborators the API is served from.
type Services struct {
	Claims    claim.Service
	QR        qr.Service
	Rewards   reward.Service
	Scan      scan.Service
	Directory directory.Service
	Health    map[string]handlers.Check

	// ScanRateLimit caps partner requests per IP and minute; 0 disables it.
	ScanRateLimit int
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, s Services) {
	claimHandler := handlers.NewClaimHandler(s.Claims)
	qrHandler := handlers.NewQRHandler(s.QR, s.Directory)
	partnerHandler := handlers.NewPartnerHandler(s.Scan, s.Directory)
	rewardHandler := handlers.NewRewardHandler(s.Rewards)
	listingHandler := handlers.NewListingHandler(s.Directory)
	healthHandler := handlers.NewHealthHandler(s.Health)

	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Claim routes
	claims := api.Group("/claims")
	claims.Post("/", claimHandler.Submit)
	claims.Get("/:id", claimHandler.Get)
	claims.Post("/:id/approve", claimHandler.Approve)
	claims.Post("/:id/decline", claimHandler.Decline)
	claims.Post("/:id/complete", claimHandler.Complete)
	claims.Get("/:id/qr", qrHandler.ListByClaim)

	api.Get("/donors/:donorId/claims", claimHandler.ListByDonor)
	api.Get("/collectors/:collectorId/claims", claimHandler.ListByCollector)

	// Item routes
	api.Post("/items", listingHandler.Create)
	items := api.Group("/items/:itemId")
	items.Get("/", listingHandler.Get)
	items.Get("/claims", claimHandler.ListByItem)
	items.Get("/claims/pending-count", claimHandler.PendingCount)
	items.Post("/qr/standalone", qrHandler.IssueStandalone)
	items.Get("/collected", rewardHandler.Collected)

	// QR routes
	api.Post("/qr/validate", qrHandler.Validate)
	api.Get("/qr/:transactionId", qrHandler.GetByTransaction)
	api.Get("/users/:userId/qr", qrHandler.GetUserQRCodes)

	api.Get("/rewards/:donorId", rewardHandler.Balance)

	// Partner routes
	partner := api.Group("/partner")
	if s.ScanRateLimit > 0 {
		partner.Use(limiter.New(limiter.Config{
			Max:        s.ScanRateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: response.TooManyRequests,
		}))
	}
	partner.Post("/shops", partnerHandler.CreateShop)
	partner.Get("/shops/:shopId", partnerHandler.GetShop)
	partner.Post("/resolve", partnerHandler.Resolve)
	partner.Get("/items/:itemId", partnerHandler.ViewItem)
	partner.Post("/items/:itemId/dropoff-in", partnerHandler.DropoffIn)
	partner.Post("/items/:itemId/claim-out", partnerHandler.ClaimOut)
}
