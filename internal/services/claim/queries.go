package claim

import (
	"context"
	"errors"

	domainErrors "handoff/internal/errors"
	"handoff/internal/models"
	"handoff/internal/repositories"
)

func (s *service) GetByID(ctx context.Context, requestID string) (*models.ClaimRequest, error) {
	return s.find(ctx, s.store, requestID)
}

func (s *service) ListByItem(ctx context.Context, itemID string) ([]models.ClaimRequest, error) {
	return s.store.Claims().ListByItem(ctx, itemID)
}

func (s *service) ListByDonor(ctx context.Context, donorID string) ([]models.ClaimRequest, error) {
	return s.store.Claims().ListByDonor(ctx, donorID)
}

func (s *service) ListByCollector(ctx context.Context, collectorID string) ([]models.ClaimRequest, error) {
	return s.store.Claims().ListByCollector(ctx, collectorID)
}

func (s *service) PendingCountByItem(ctx context.Context, itemID string) (int64, error) {
	return s.store.Claims().CountByItemAndStatus(ctx, itemID, models.ClaimStatusPending)
}

// ActiveForItem prefers the approved request over a completed one.
func (s *service) ActiveForItem(ctx context.Context, itemID string) (*models.ClaimRequest, error) {
	reqs, err := s.store.Claims().FindByItemAndStatus(ctx, itemID, models.ClaimStatusApproved, models.ClaimStatusCompleted)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	var active *models.ClaimRequest
	for i := range reqs {
		if reqs[i].Status == models.ClaimStatusApproved {
			return &reqs[i], nil
		}
		if active == nil {
			active = &reqs[i]
		}
	}
	if active == nil {
		return nil, domainErrors.ErrClaimNotFound
	}
	return active, nil
}
