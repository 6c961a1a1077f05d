package repositories

import (
	"context"
	"errors"
	"handoff/internal/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

func (r *ledgerRepository) AppendEntry(ctx context.Context, entry *models.RewardEntry) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error, "append reward entry")
}

// IncrementBalance adds points in one upsert so concurrent credits for the
// same donor never lose an update.
func (r *ledgerRepository) IncrementBalance(ctx context.Context, donorID string, points int, at time.Time) error {
	row := &models.RewardBalance{DonorID: donorID, Balance: points, UpdatedAt: at}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "donor_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance":    gorm.Expr("reward_balances.balance + ?", points),
				"updated_at": at,
			}),
		}).
		Create(row).Error
	return translate(err, "increment reward balance")
}

func (r *ledgerRepository) GetBalance(ctx context.Context, donorID string) (int, error) {
	var row models.RewardBalance
	err := r.db.WithContext(ctx).First(&row, "donor_id = ?", donorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, translate(err, "get reward balance")
	}
	return row.Balance, nil
}

func (r *ledgerRepository) ListEntries(ctx context.Context, donorID string) ([]models.RewardEntry, error) {
	var entries []models.RewardEntry
	err := r.db.WithContext(ctx).Where("donor_id = ?", donorID).Order("created_at DESC").Find(&entries).Error
	return entries, translate(err, "list reward entries")
}

func (r *ledgerRepository) MarkCollected(ctx context.Context, item *models.CollectedItem) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}},
			UpdateAll: true,
		}).
		Create(item).Error
	return translate(err, "mark item collected")
}

func (r *ledgerRepository) GetCollected(ctx context.Context, itemID string) (*models.CollectedItem, error) {
	var item models.CollectedItem
	if err := r.db.WithContext(ctx).First(&item, "item_id = ?", itemID).Error; err != nil {
		return nil, translate(err, "get collected item")
	}
	return &item, nil
}
