// Package directory registers the listings and partner shops the exchange
// operates on.
package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	domainErrors "handoff/internal/errors"
	"handoff/internal/models"
	"handoff/internal/repositories"
	"handoff/internal/validation"

	"go.uber.org/zap"
)

var (
	ErrListingExists = domainErrors.ErrIllegalTransition.WithMessage("listing already exists")
	ErrShopExists    = domainErrors.ErrIllegalTransition.WithMessage("partner shop already exists")
)

type Service interface {
	CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	CreateShop(ctx context.Context, shop *models.PartnerShop) (*models.PartnerShop, error)
	GetShop(ctx context.Context, id string) (*models.PartnerShop, error)
}

type service struct {
	store repositories.Store
	now   func() time.Time
	log   *zap.Logger
}

func NewService(store repositories.Store, now func() time.Time, log *zap.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{store: store, now: now, log: log}
}

func (s *service) CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	v := validation.New()
	v.Struct(listing)
	if err := v.Err(); err != nil {
		return nil, err
	}

	l := *listing
	l.PickupOption = strings.ToLower(strings.TrimSpace(l.PickupOption))
	if l.PickupStatus == "" && l.PickupOption == models.PickupOptionDonate {
		l.PickupStatus = models.PickupStatusPendingDropoff
	}
	l.Status = models.ListingStatusAvailable
	l.DropOffShopID = nil
	now := s.now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now

	if err := s.store.Listings().Create(ctx, &l); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrListingExists
		}
		return nil, err
	}
	s.log.Info("listing registered", zap.String("item_id", l.ID), zap.String("donor_id", l.DonorID))
	return &l, nil
}

func (s *service) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	l, err := s.store.Listings().GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, domainErrors.ErrListingNotFound
	}
	return l, err
}

func (s *service) CreateShop(ctx context.Context, shop *models.PartnerShop) (*models.PartnerShop, error) {
	v := validation.New()
	v.Struct(shop)
	if err := v.Err(); err != nil {
		return nil, err
	}

	sh := *shop
	sh.CreatedAt = s.now().UTC()
	if err := s.store.Shops().Create(ctx, &sh); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrShopExists
		}
		return nil, err
	}
	s.log.Info("partner shop registered", zap.String("shop_id", sh.ID))
	return &sh, nil
}

func (s *service) GetShop(ctx context.Context, id string) (*models.PartnerShop, error) {
	sh, err := s.store.Shops().GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, domainErrors.ErrShopNotFound
	}
	return sh, err
}
