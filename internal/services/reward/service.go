package reward

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "handoff/internal/errors"
	"handoff/internal/models"
	"handoff/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	store repositories.Store
	cache BalanceCache
	now   func() time.Time
	log   *zap.Logger
}

// NewService creates the ledger. A nil cache disables caching.
func NewService(store repositories.Store, cache BalanceCache, now func() time.Time, log *zap.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if cache == nil {
		cache = NoopCache{}
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{store: store, cache: cache, now: now, log: log}
}

func (s *service) WithStore(store repositories.Store) Service {
	clone := *s
	clone.store = store
	return &clone
}

func (s *service) Credit(ctx context.Context, donorID, claimRequestID string, points int) error {
	if points < 0 {
		return domainErrors.ErrInvalidAmount
	}
	if donorID == "" || claimRequestID == "" {
		return domainErrors.ErrInvalidPayload.WithMessage("donor and claim request are required")
	}

	at := s.now().UTC()
	return s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		err := tx.Ledger().AppendEntry(ctx, &models.RewardEntry{
			ID:             uuid.NewString(),
			DonorID:        donorID,
			ClaimRequestID: claimRequestID,
			Points:         points,
			CreatedAt:      at,
		})
		if errors.Is(err, repositories.ErrDuplicate) {
			return ErrAlreadyCredited
		}
		if err != nil {
			return err
		}
		if err := tx.Ledger().IncrementBalance(ctx, donorID, points, at); err != nil {
			return fmt.Errorf("failed to credit donor: %w", err)
		}
		return nil
	})
}

func (s *service) Balance(ctx context.Context, donorID string) (int, error) {
	if balance, found, err := s.cache.GetBalance(ctx, donorID); err != nil {
		s.log.Warn("balance cache read failed", zap.String("donor_id", donorID), zap.Error(err))
	} else if found {
		return balance, nil
	}

	balance, err := s.store.Ledger().GetBalance(ctx, donorID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetBalance(ctx, donorID, balance); err != nil {
		s.log.Warn("balance cache write failed", zap.String("donor_id", donorID), zap.Error(err))
	}
	return balance, nil
}

func (s *service) InvalidateBalance(ctx context.Context, donorID string) {
	if err := s.cache.InvalidateBalance(ctx, donorID); err != nil {
		s.log.Warn("balance cache invalidation failed", zap.String("donor_id", donorID), zap.Error(err))
	}
}

func (s *service) History(ctx context.Context, donorID string) ([]models.RewardEntry, error) {
	return s.store.Ledger().ListEntries(ctx, donorID)
}

func (s *service) MarkCollected(ctx context.Context, itemID, claimRequestID string) error {
	return s.store.Ledger().MarkCollected(ctx, &models.CollectedItem{
		ItemID:         itemID,
		Collected:      true,
		ClaimRequestID: claimRequestID,
		ConfirmedAt:    s.now().UTC(),
	})
}

// IsCollected returns an uncollected record for unknown items.
func (s *service) IsCollected(ctx context.Context, itemID string) (*models.CollectedItem, error) {
	item, err := s.store.Ledger().GetCollected(ctx, itemID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &models.CollectedItem{ItemID: itemID}, nil
	}
	return item, err
}
