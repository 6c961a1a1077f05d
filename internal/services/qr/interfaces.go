package qr

import (
	"context"

	"handoff/internal/models"
	"handoff/internal/repositories"
)

// Service defines the QR code registry.
type Service interface {
	// Issuance
	IssuePair(ctx context.Context, listing *models.Listing, req *models.ClaimRequest) (*Pair, error)
	IssueStandalone(ctx context.Context, listing *models.Listing) (*models.QRCode, error)

	// Validate decodes payload and checks that the code it names exists, is
	// not expired and can still make the next transition for role. An
	// empty role uses the type carried in the payload. Nothing is mutated
	// except a lazy move to expired.
	Validate(ctx context.Context, payload string, role models.QRType) (*models.QRCode, error)
	// Transition moves the holder's code to next with one guarded update.
	Transition(ctx context.Context, transactionID string, role models.QRType, next models.QRStatus, shopID string) (*models.QRCode, error)
	SetDropOffLocation(ctx context.Context, transactionID, location string) error

	// Lookups
	GetByTransaction(ctx context.Context, transactionID string) ([]models.QRCode, error)
	ListByUser(ctx context.Context, userID string) ([]models.QRCode, error)
	ListByClaim(ctx context.Context, claimRequestID string) ([]models.QRCode, error)

	// EncodePayload renders the scannable payload of code.
	EncodePayload(ctx context.Context, code *models.QRCode) (string, error)

	// WithStore returns a Service working inside store, typically the
	// transaction of a caller.
	WithStore(store repositories.Store) Service
}
