package repositories

import (
	"context"
	"handoff/internal/models"
	"time"

	"gorm.io/gorm"
)

type claimRequestRepository struct {
	db *gorm.DB
}

func (r *claimRequestRepository) Create(ctx context.Context, req *models.ClaimRequest) error {
	return translate(r.db.WithContext(ctx).Create(req).Error, "create claim request")
}

func (r *claimRequestRepository) GetByID(ctx context.Context, id string) (*models.ClaimRequest, error) {
	var req models.ClaimRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get claim request")
	}
	return &req, nil
}

func (r *claimRequestRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.ClaimRequest, error) {
	var req models.ClaimRequest
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err, "lock claim request")
	}
	return &req, nil
}

func (r *claimRequestRepository) FindOpen(ctx context.Context, itemID, collectorID string) (*models.ClaimRequest, error) {
	var req models.ClaimRequest
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND collector_id = ? AND status <> ?", itemID, collectorID, models.ClaimStatusCompleted).
		First(&req).Error
	if err != nil {
		return nil, translate(err, "find open claim request")
	}
	return &req, nil
}

func (r *claimRequestRepository) FindByItemAndStatus(ctx context.Context, itemID string, statuses ...models.ClaimStatus) ([]models.ClaimRequest, error) {
	var reqs []models.ClaimRequest
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND status IN ?", itemID, statuses).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, translate(err, "find claim requests by status")
}

func (r *claimRequestRepository) ListByItem(ctx context.Context, itemID string) ([]models.ClaimRequest, error) {
	var reqs []models.ClaimRequest
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Order("created_at ASC").Find(&reqs).Error
	return reqs, translate(err, "list claim requests by item")
}

func (r *claimRequestRepository) ListByItemForUpdate(ctx context.Context, itemID string) ([]models.ClaimRequest, error) {
	var reqs []models.ClaimRequest
	err := r.db.WithContext(ctx).Clauses(forUpdate).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, translate(err, "lock claim requests by item")
}

func (r *claimRequestRepository) ListByDonor(ctx context.Context, donorID string) ([]models.ClaimRequest, error) {
	var reqs []models.ClaimRequest
	err := r.db.WithContext(ctx).Where("donor_id = ?", donorID).Order("created_at DESC").Find(&reqs).Error
	return reqs, translate(err, "list claim requests by donor")
}

func (r *claimRequestRepository) ListByCollector(ctx context.Context, collectorID string) ([]models.ClaimRequest, error) {
	var reqs []models.ClaimRequest
	err := r.db.WithContext(ctx).Where("collector_id = ?", collectorID).Order("created_at DESC").Find(&reqs).Error
	return reqs, translate(err, "list claim requests by collector")
}

func (r *claimRequestRepository) CountByItemAndStatus(ctx context.Context, itemID string, status models.ClaimStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ClaimRequest{}).
		Where("item_id = ? AND status = ?", itemID, status).
		Count(&count).Error
	return count, translate(err, "count claim requests")
}

func (r *claimRequestRepository) CompareAndSwapStatus(ctx context.Context, id string, from, to models.ClaimStatus, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	if to == models.ClaimStatusCompleted {
		updates["completed_at"] = at
	} else {
		updates["decision_at"] = at
	}

	result := r.db.WithContext(ctx).Model(&models.ClaimRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, translate(result.Error, "update claim request status")
	}
	return result.RowsAffected == 1, nil
}

func (r *claimRequestRepository) DeclinePending(ctx context.Context, itemID, exceptID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ClaimRequest{}).
		Where("item_id = ? AND id <> ? AND status = ?", itemID, exceptID, models.ClaimStatusPending).
		Updates(map[string]interface{}{
			"status":      models.ClaimStatusDeclined,
			"decision_at": at,
			"updated_at":  at,
		})
	if result.Error != nil {
		return 0, translate(result.Error, "decline pending claim requests")
	}
	return result.RowsAffected, nil
}
