// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"errors"
	"handoff/internal/models"
	"time"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store groups the repositories of one unit of work. Repositories obtained
// from the Store passed to ExecuteInTransaction share that transaction.
type Store interface {
	Claims() ClaimRequestRepository
	QRCodes() QRCodeRepository
	Ledger() LedgerRepository
	Listings() ListingRepository
	Shops() ShopRepository
	ScanEvents() ScanEventRepository

	// ExecuteInTransaction runs fn atomically. Nested calls join the
	// enclosing transaction.
	ExecuteInTransaction(ctx context.Context, fn func(Store) error) error
}

// ClaimRequestRepository defines claim request persistence.
type ClaimRequestRepository interface {
	// Create returns ErrDuplicate when an open request already exists
	// for the same item and collector.
	Create(ctx context.Context, req *models.ClaimRequest) error
	GetByID(ctx context.Context, id string) (*models.ClaimRequest, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.ClaimRequest, error)
	FindOpen(ctx context.Context, itemID, collectorID string) (*models.ClaimRequest, error)
	FindByItemAndStatus(ctx context.Context, itemID string, statuses ...models.ClaimStatus) ([]models.ClaimRequest, error)

	ListByItem(ctx context.Context, itemID string) ([]models.ClaimRequest, error)
	// ListByItemForUpdate locks every request of the item until commit.
	ListByItemForUpdate(ctx context.Context, itemID string) ([]models.ClaimRequest, error)
	ListByDonor(ctx context.Context, donorID string) ([]models.ClaimRequest, error)
	ListByCollector(ctx context.Context, collectorID string) ([]models.ClaimRequest, error)
	CountByItemAndStatus(ctx context.Context, itemID string, status models.ClaimStatus) (int64, error)

	// CompareAndSwapStatus moves id from `from` to `to` and reports
	// whether the row was in `from`.
	CompareAndSwapStatus(ctx context.Context, id string, from, to models.ClaimStatus, at time.Time) (bool, error)
	// DeclinePending declines every pending request of itemID except exceptID.
	DeclinePending(ctx context.Context, itemID, exceptID string, at time.Time) (int64, error)
}

// QRStatusChange describes a guarded QR status update.
type QRStatusChange struct {
	TransactionID string
	Type          models.QRType
	From          []models.QRStatus
	To            models.QRStatus
	At            time.Time
	// NotExpiredAt, when set, additionally requires expires_at >= *NotExpiredAt.
	NotExpiredAt *time.Time
	ShopID       string
}

// QRCodeRepository defines QR code persistence.
type QRCodeRepository interface {
	// Upsert inserts codes, replacing any record with the same
	// (transaction_id, type).
	Upsert(ctx context.Context, codes ...*models.QRCode) error
	GetByTransaction(ctx context.Context, transactionID string, qrType models.QRType) (*models.QRCode, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]models.QRCode, error)
	ListByUser(ctx context.Context, userID string) ([]models.QRCode, error)
	ListByClaim(ctx context.Context, claimRequestID string) ([]models.QRCode, error)
	CompareAndSwapStatus(ctx context.Context, change QRStatusChange) (bool, error)
	SetDropOffLocation(ctx context.Context, transactionID, location string) error
}

// LedgerRepository defines reward ledger persistence.
type LedgerRepository interface {
	// AppendEntry returns ErrDuplicate when the request was already credited.
	AppendEntry(ctx context.Context, entry *models.RewardEntry) error
	IncrementBalance(ctx context.Context, donorID string, points int, at time.Time) error
	GetBalance(ctx context.Context, donorID string) (int, error)
	ListEntries(ctx context.Context, donorID string) ([]models.RewardEntry, error)

	MarkCollected(ctx context.Context, item *models.CollectedItem) error
	GetCollected(ctx context.Context, itemID string) (*models.CollectedItem, error)
}

// ListingRepository is the slice of the listing store the exchange mutates.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Listing, error)
	MarkDroppedOff(ctx context.Context, id, shopID string) error
	MarkCollected(ctx context.Context, id string) error
}

// ShopRepository is the shop directory.
type ShopRepository interface {
	Create(ctx context.Context, shop *models.PartnerShop) error
	GetByID(ctx context.Context, id string) (*models.PartnerShop, error)
}

type ScanEventRepository interface {
	Create(ctx context.Context, event *models.ScanEvent) error
	ListByItem(ctx context.Context, itemID string) ([]models.ScanEvent, error)
}
