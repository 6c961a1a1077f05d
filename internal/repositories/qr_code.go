package repositories

import (
	"context"
	"handoff/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type qrCodeRepository struct {
	db *gorm.DB
}

func (r *qrCodeRepository) Upsert(ctx context.Context, codes ...*models.QRCode) error {
	if len(codes) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}, {Name: "type"}},
			UpdateAll: true,
		}).
		Create(codes).Error
	return translate(err, "save QR codes")
}

func (r *qrCodeRepository) GetByTransaction(ctx context.Context, transactionID string, qrType models.QRType) (*models.QRCode, error) {
	var qr models.QRCode
	err := r.db.WithContext(ctx).
		Where("transaction_id = ? AND type = ?", transactionID, qrType).
		First(&qr).Error
	if err != nil {
		return nil, translate(err, "get QR code")
	}
	return &qr, nil
}

func (r *qrCodeRepository) ListByTransaction(ctx context.Context, transactionID string) ([]models.QRCode, error) {
	var codes []models.QRCode
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Order("type ASC").Find(&codes).Error
	return codes, translate(err, "list QR codes by transaction")
}

func (r *qrCodeRepository) ListByUser(ctx context.Context, userID string) ([]models.QRCode, error) {
	var codes []models.QRCode
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&codes).Error
	return codes, translate(err, "list QR codes by user")
}

func (r *qrCodeRepository) ListByClaim(ctx context.Context, claimRequestID string) ([]models.QRCode, error) {
	var codes []models.QRCode
	err := r.db.WithContext(ctx).Where("claim_request_id = ?", claimRequestID).Order("type ASC").Find(&codes).Error
	return codes, translate(err, "list QR codes by claim")
}

// CompareAndSwapStatus is a single guarded UPDATE, so two scans of the same
// code cannot both succeed.
func (r *qrCodeRepository) CompareAndSwapStatus(ctx context.Context, change QRStatusChange) (bool, error) {
	updates := map[string]interface{}{
		"status":     change.To,
		"updated_at": change.At,
	}
	switch change.To {
	case models.QRStatusScanned:
		updates["scanned_at"] = change.At
		updates["scanned_by_shop_id"] = change.ShopID
	case models.QRStatusCompleted:
		updates["completed_at"] = change.At
	}

	q := r.db.WithContext(ctx).Model(&models.QRCode{}).
		Where("transaction_id = ? AND type = ? AND status IN ?", change.TransactionID, change.Type, change.From)
	if change.NotExpiredAt != nil {
		q = q.Where("expires_at >= ?", *change.NotExpiredAt)
	}

	result := q.Updates(updates)
	if result.Error != nil {
		return false, translate(result.Error, "update QR code status")
	}
	return result.RowsAffected == 1, nil
}

func (r *qrCodeRepository) SetDropOffLocation(ctx context.Context, transactionID, location string) error {
	err := r.db.WithContext(ctx).Model(&models.QRCode{}).
		Where("transaction_id = ?", transactionID).
		Update("drop_off_location", location).Error
	return translate(err, "set drop-off location")
}
