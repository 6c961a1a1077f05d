package reward

import (
	"context"

	"handoff/internal/models"
	"handoff/internal/repositories"
)

// Service defines the GreenPoints ledger.
type Service interface {
	// Credit adds points to the donor for one completed request. A request
	// can be credited only once.
	Credit(ctx context.Context, donorID, claimRequestID string, points int) error
	// Balance returns 0 for donors never credited.
	Balance(ctx context.Context, donorID string) (int, error)
	History(ctx context.Context, donorID string) ([]models.RewardEntry, error)
	InvalidateBalance(ctx context.Context, donorID string)

	MarkCollected(ctx context.Context, itemID, claimRequestID string) error
	IsCollected(ctx context.Context, itemID string) (*models.CollectedItem, error)

	WithStore(store repositories.Store) Service
}

// BalanceCache is a read-through cache of donor balances.
type BalanceCache interface {
	GetBalance(ctx context.Context, donorID string) (int, bool, error)
	SetBalance(ctx context.Context, donorID string, balance int) error
	InvalidateBalance(ctx context.Context, donorID string) error
}
