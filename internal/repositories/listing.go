package repositories

import (
	"context"
	"handoff/internal/models"

	"gorm.io/gorm"
)

type listingRepository struct {
	db *gorm.DB
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	return translate(r.db.WithContext(ctx).Create(listing).Error, "create listing")
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get listing")
	}
	return &listing, nil
}

// GetByIDForUpdate locks the listing row; approvals for one item serialize on it.
func (r *listingRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&listing, "id = ?", id).Error; err != nil {
		return nil, translate(err, "lock listing")
	}
	return &listing, nil
}

func (r *listingRepository) MarkDroppedOff(ctx context.Context, id, shopID string) error {
	return r.update(ctx, id, map[string]interface{}{
		"pickup_status":    models.PickupStatusAwaitingCollection,
		"drop_off_shop_id": shopID,
	}, "mark listing dropped off")
}

func (r *listingRepository) MarkCollected(ctx context.Context, id string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        models.ListingStatusCollected,
		"pickup_status": models.PickupStatusCollected,
	}, "mark listing collected")
}

func (r *listingRepository) update(ctx context.Context, id string, updates map[string]interface{}, op string) error {
	result := r.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translate(result.Error, op)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type shopRepository struct {
	db *gorm.DB
}

func (r *shopRepository) Create(ctx context.Context, shop *models.PartnerShop) error {
	return translate(r.db.WithContext(ctx).Create(shop).Error, "create partner shop")
}

func (r *shopRepository) GetByID(ctx context.Context, id string) (*models.PartnerShop, error) {
	var shop models.PartnerShop
	if err := r.db.WithContext(ctx).First(&shop, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get partner shop")
	}
	return &shop, nil
}

type scanEventRepository struct {
	db *gorm.DB
}

func (r *scanEventRepository) Create(ctx context.Context, event *models.ScanEvent) error {
	return translate(r.db.WithContext(ctx).Create(event).Error, "record scan event")
}

func (r *scanEventRepository) ListByItem(ctx context.Context, itemID string) ([]models.ScanEvent, error) {
	var events []models.ScanEvent
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Order("created_at ASC").Find(&events).Error
	return events, translate(err, "list scan events")
}
