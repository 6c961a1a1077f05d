package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by db.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Claims() ClaimRequestRepository { return &claimRequestRepository{db: s.db} }
func (s *gormStore) QRCodes() QRCodeRepository       { return &qrCodeRepository{db: s.db} }
func (s *gormStore) Ledger() LedgerRepository        { return &ledgerRepository{db: s.db} }
func (s *gormStore) Listings() ListingRepository     { return &listingRepository{db: s.db} }
func (s *gormStore) Shops() ShopRepository           { return &shopRepository{db: s.db} }
func (s *gormStore) ScanEvents() ScanEventRepository { return &scanEventRepository{db: s.db} }

// ExecuteInTransaction runs fn inside a database transaction. GORM turns
// nested calls into savepoints.
func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

var forUpdate = clause.Locking{Strength: "UPDATE"}

// translate maps GORM errors onto repository sentinels.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
