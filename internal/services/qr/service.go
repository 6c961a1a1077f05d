package qr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainErrors "handoff/internal/errors"
	"handoff/internal/metrics"
	"handoff/internal/models"
	"handoff/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	store   repositories.Store
	cfg     Config
	metrics metrics.Recorder
	log     *zap.Logger
}

// NewService creates a new QR registry.
func NewService(store repositories.Store, cfg Config, rec metrics.Recorder, log *zap.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if cfg.PairTTL <= 0 {
		cfg.PairTTL = DefaultPairTTL
	}
	if cfg.StandaloneTTL <= 0 {
		cfg.StandaloneTTL = DefaultStandaloneTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if rec == nil {
		rec = metrics.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &service{
		store:   store,
		cfg:     cfg,
		metrics: rec,
		log:     log,
	}
}

func (s *service) WithStore(store repositories.Store) Service {
	clone := *s
	clone.store = store
	return &clone
}

func (s *service) now() time.Time {
	return s.cfg.Now().UTC()
}

func (s *service) IssuePair(ctx context.Context, listing *models.Listing, req *models.ClaimRequest) (*Pair, error) {
	if listing == nil || req == nil {
		return nil, domainErrors.ErrInvalidPayload.WithMessage("listing and claim request are required")
	}

	now := s.now()
	expires := now.Add(s.cfg.PairTTL)
	txID := uuid.NewString()
	requestID := req.ID

	donor := s.newCode(listing, txID, models.QRTypeDonor, now, expires)
	donor.ClaimRequestID = &requestID
	donor.UserID, donor.UserName = req.DonorID, req.DonorName

	collector := s.newCode(listing, txID, models.QRTypeCollector, now, expires)
	collector.ClaimRequestID = &requestID
	collector.UserID, collector.UserName = req.CollectorID, req.CollectorName

	if err := s.store.QRCodes().Upsert(ctx, donor, collector); err != nil {
		s.metrics.Error("qr_issue_pair")
		return nil, fmt.Errorf("failed to issue QR pair: %w", err)
	}
	s.metrics.QRIssued("pair")
	s.log.Debug("issued QR pair",
		zap.String("transaction_id", txID),
		zap.String("claim_request_id", req.ID),
		zap.Time("expires_at", expires),
	)

	return &Pair{TransactionID: txID, Donor: donor, Collector: collector}, nil
}

func (s *service) IssueStandalone(ctx context.Context, listing *models.Listing) (*models.QRCode, error) {
	if listing == nil {
		return nil, domainErrors.ErrInvalidPayload.WithMessage("listing is required")
	}
	if !isDonate(listing) {
		return nil, domainErrors.ErrIllegalTransition.WithMessage("standalone QR codes are only issued for donated items")
	}
	if listing.Status == models.ListingStatusCollected {
		return nil, domainErrors.ErrIllegalTransition.WithMessage("item has already been collected")
	}

	now := s.now()
	expires := now.Add(s.cfg.StandaloneTTL)
	code := s.newCode(listing, uuid.NewString(), models.QRTypeDonor, now, expires)
	code.UserID, code.UserName = listing.DonorID, listing.DonorName

	if err := s.store.QRCodes().Upsert(ctx, code); err != nil {
		s.metrics.Error("qr_issue_standalone")
		return nil, fmt.Errorf("failed to issue QR code: %w", err)
	}
	s.metrics.QRIssued("standalone")
	return code, nil
}

func (s *service) newCode(listing *models.Listing, txID string, t models.QRType, now, expires time.Time) *models.QRCode {
	return &models.QRCode{
		ID:            uuid.NewString(),
		TransactionID: txID,
		Type:          t,
		ItemID:        listing.ID,
		ItemTitle:     listing.Title,
		Metadata: models.QRMetadata{
			Category:   listing.Category,
			Condition:  listing.Condition,
			CO2Impact:  listing.CO2Impact,
			CreatedAt:  now,
			ExpiresAt:  expires,
			ActionType: listing.ActionType,
		},
		ExpiresAt: expires,
		Status:    models.QRStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *service) Validate(ctx context.Context, payload string, role models.QRType) (*models.QRCode, error) {
	p, err := DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = p.Type
	}
	if p.Type != role {
		return nil, domainErrors.ErrInvalidQR.WithMessage(fmt.Sprintf("expected a %s QR code, got %s", role, p.Type))
	}

	code, err := s.store.QRCodes().GetByTransaction(ctx, p.TransactionID, p.Type)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, domainErrors.ErrQRNotFound
		}
		return nil, err
	}
	if code.ItemID != p.ItemID {
		return nil, domainErrors.ErrInvalidQR.WithMessage("QR code does not belong to this item")
	}

	now := s.now()
	if code.Status == models.QRStatusExpired || code.IsExpired(now) {
		s.expire(ctx, code, now)
		return nil, domainErrors.ErrQRExpired
	}
	if !transitions[role].accepts(code.Status) {
		return nil, domainErrors.ErrQRAlreadyUsed
	}
	return code, nil
}

// expire records a lazily detected expiry. Failure only means the next
// validation tries again.
func (s *service) expire(ctx context.Context, code *models.QRCode, now time.Time) {
	if code.Status != models.QRStatusActive && code.Status != models.QRStatusScanned {
		return
	}
	_, err := s.store.QRCodes().CompareAndSwapStatus(ctx, repositories.QRStatusChange{
		TransactionID: code.TransactionID,
		Type:          code.Type,
		From:          []models.QRStatus{code.Status},
		To:            models.QRStatusExpired,
		At:            now,
	})
	if err != nil {
		s.log.Warn("failed to mark QR code expired",
			zap.String("transaction_id", code.TransactionID),
			zap.String("type", code.Type.String()),
			zap.Error(err),
		)
		return
	}
	code.Status = models.QRStatusExpired
}

func (s *service) Transition(ctx context.Context, transactionID string, role models.QRType, next models.QRStatus, shopID string) (*models.QRCode, error) {
	t, ok := transitions[role]
	if !ok || t.to != next {
		return nil, domainErrors.ErrIllegalTransition.WithMessage(fmt.Sprintf("a %s QR code cannot move to %s", role, next))
	}

	now := s.now()
	swapped, err := s.store.QRCodes().CompareAndSwapStatus(ctx, repositories.QRStatusChange{
		TransactionID: transactionID,
		Type:          role,
		From:          t.from,
		To:            next,
		At:            now,
		NotExpiredAt:  &now,
		ShopID:        shopID,
	})
	if err != nil {
		s.metrics.Error("qr_transition")
		return nil, err
	}

	code, err := s.store.QRCodes().GetByTransaction(ctx, transactionID, role)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, domainErrors.ErrQRNotFound
		}
		return nil, err
	}
	if swapped {
		return code, nil
	}
	return nil, classify(code, t, now)
}

// classify explains why a guarded transition of code did not apply.
func classify(code *models.QRCode, t transition, now time.Time) error {
	switch {
	case code.Status == models.QRStatusExpired || code.IsExpired(now):
		return domainErrors.ErrQRExpired
	case !t.accepts(code.Status):
		return domainErrors.ErrQRAlreadyUsed
	default:
		return domainErrors.ErrIllegalTransition.WithMessage("QR code changed concurrently")
	}
}

func (s *service) SetDropOffLocation(ctx context.Context, transactionID, location string) error {
	return s.store.QRCodes().SetDropOffLocation(ctx, transactionID, location)
}

func (s *service) GetByTransaction(ctx context.Context, transactionID string) ([]models.QRCode, error) {
	codes, err := s.store.QRCodes().ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, domainErrors.ErrQRNotFound
	}
	return codes, nil
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]models.QRCode, error) {
	return s.store.QRCodes().ListByUser(ctx, userID)
}

func (s *service) ListByClaim(ctx context.Context, claimRequestID string) ([]models.QRCode, error) {
	return s.store.QRCodes().ListByClaim(ctx, claimRequestID)
}

func (s *service) EncodePayload(ctx context.Context, code *models.QRCode) (string, error) {
	p := &Payload{
		TransactionID:   code.TransactionID,
		Type:            code.Type,
		ItemID:          code.ItemID,
		ItemTitle:       code.ItemTitle,
		UserID:          code.UserID,
		UserName:        code.UserName,
		Metadata:        code.Metadata,
		DropOffLocation: code.DropOffLocation,
		Timestamp:       s.now(),
	}

	listing, err := s.store.Listings().GetByID(ctx, code.ItemID)
	switch {
	case err == nil:
		p.ItemDescription = listing.Description
		p.ItemImage = listing.ImageURL
	case !errors.Is(err, repositories.ErrNotFound):
		return "", err
	}

	return encode(p)
}

func isDonate(l *models.Listing) bool {
	return strings.EqualFold(strings.TrimSpace(l.PickupOption), models.PickupOptionDonate)
}
