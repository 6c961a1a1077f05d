package claim

import (
	"context"

	"handoff/internal/events"
	"handoff/internal/models"
	"handoff/internal/repositories"
)

// Service defines the claim request state machine:
// pending -> approved | declined, approved -> completed.
type Service interface {
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	Approve(ctx context.Context, requestID string) (*ApproveResult, error)
	Decline(ctx context.Context, requestID string) (*models.ClaimRequest, error)
	// Complete credits the configured reward.
	Complete(ctx context.Context, requestID string) (*CompleteResult, error)
	CompleteWithPoints(ctx context.Context, requestID string, points int) (*CompleteResult, error)

	// Queries
	GetByID(ctx context.Context, requestID string) (*models.ClaimRequest, error)
	ListByItem(ctx context.Context, itemID string) ([]models.ClaimRequest, error)
	ListByDonor(ctx context.Context, donorID string) ([]models.ClaimRequest, error)
	ListByCollector(ctx context.Context, collectorID string) ([]models.ClaimRequest, error)
	PendingCountByItem(ctx context.Context, itemID string) (int64, error)
	// ActiveForItem returns the approved or completed request of the item.
	ActiveForItem(ctx context.Context, itemID string) (*models.ClaimRequest, error)

	// Bind returns a Service that works inside the caller's transaction
	// store and queues its events on buf instead of publishing them.
	Bind(store repositories.Store, buf *events.Buffer) Service
}
