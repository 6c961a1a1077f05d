package scan

import (
	"context"
	"errors"
	"strings"
	"time"

	domainErrors "handoff/internal/errors"
	"handoff/internal/events"
	"handoff/internal/metrics"
	"handoff/internal/models"
	"handoff/internal/repositories"
	"handoff/internal/services/claim"
	"handoff/internal/services/qr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	store     repositories.Store
	qr        qr.Service
	claims    claim.Service
	publisher events.Publisher
	now       func() time.Time
	metrics   metrics.Recorder
	log       *zap.Logger
}

// NewService creates the partner scan service.
func NewService(store repositories.Store, qrSvc qr.Service, claims claim.Service,
	publisher events.Publisher, cfg Config, rec metrics.Recorder, log *zap.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if qrSvc == nil {
		panic("qr service is required")
	}
	if claims == nil {
		panic("claim service is required")
	}
	if publisher == nil {
		panic("event publisher is required")
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
		store:     store,
		qr:        qrSvc,
		claims:    claims,
		publisher: publisher,
		now:       cfg.Now,
		metrics:   rec,
		log:       log,
	}
}

// attempt collects what a scan touched so a failure can be recorded.
type attempt struct {
	itemID        string
	shopID        string
	transactionID string
	qrType        models.QRType
	action        models.ScanAction
}

func (a *attempt) event(result models.ScanResult, reason string, at time.Time) *models.ScanEvent {
	return &models.ScanEvent{
		ID:            uuid.NewString(),
		ItemID:        a.itemID,
		ShopID:        a.shopID,
		TransactionID: a.transactionID,
		QRType:        a.qrType,
		Action:        a.action,
		Result:        result,
		Reason:        reason,
		CreatedAt:     at,
	}
}

// reject records a refused scan outside any transaction and passes err on.
func (s *service) reject(ctx context.Context, a *attempt, err error) error {
	ev := a.event(models.ScanResultRejected, err.Error(), s.now().UTC())
	if recErr := s.store.ScanEvents().Create(ctx, ev); recErr != nil {
		s.log.Warn("failed to record rejected scan", zap.String("item_id", a.itemID), zap.Error(recErr))
	}
	s.metrics.Scan(string(a.action), string(models.ScanResultRejected))
	s.log.Info("scan rejected",
		zap.String("item_id", a.itemID),
		zap.String("shop_id", a.shopID),
		zap.String("action", string(a.action)),
		zap.Error(err),
	)
	return err
}

func (s *service) lookup(ctx context.Context, itemID, shopID string) (*models.PartnerShop, *models.Listing, error) {
	shop, err := s.store.Shops().GetByID(ctx, shopID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, domainErrors.ErrShopNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	listing, err := s.store.Listings().GetByID(ctx, itemID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, domainErrors.ErrListingNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return shop, listing, nil
}

// activeClaim is nil when the item has no approved or completed claim.
func (s *service) activeClaim(ctx context.Context, itemID string) (*models.ClaimRequest, error) {
	req, err := s.claims.ActiveForItem(ctx, itemID)
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil, nil
	}
	return req, err
}

func stateOf(listing *models.Listing, req *models.ClaimRequest) State {
	return ComputePartnerScanState(ScanInput{
		PickupStatus:    listing.PickupStatus,
		PickupOption:    listing.PickupOption,
		HasClaimContext: req != nil,
	})
}

func (s *service) DropoffIn(ctx context.Context, itemID string, req DropoffRequest, payload string) (*Result, error) {
	a := &attempt{itemID: itemID, shopID: req.ShopID, qrType: models.QRTypeDonor, action: models.ScanActionDropoff}
	if p, err := qr.DecodePayload(payload); err == nil {
		a.transactionID = p.TransactionID
	}

	shop, listing, err := s.lookup(ctx, itemID, req.ShopID)
	if err != nil {
		return nil, s.reject(ctx, a, err)
	}

	if !strings.EqualFold(strings.TrimSpace(req.Action), ActionAccept) {
		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			reason = "refused by shop"
		}
		ev := a.event(models.ScanResultRejected, reason, s.now().UTC())
		if err := s.store.ScanEvents().Create(ctx, ev); err != nil {
			return nil, err
		}
		s.metrics.Scan(string(a.action), string(models.ScanResultRejected))
		return &Result{ScanResult: *ev, Listing: listing}, nil
	}

	active, err := s.activeClaim(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !stateOf(listing, active).Allowed(ModeDropoff) {
		return nil, s.reject(ctx, a, ErrDropoffNotAllowed)
	}

	code, err := s.qr.Validate(ctx, payload, models.QRTypeDonor)
	if err != nil {
		return nil, s.reject(ctx, a, err)
	}
	if code.ItemID != itemID {
		return nil, s.reject(ctx, a, ErrWrongItem)
	}

	var result *Result
	buf := events.NewBuffer()
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		buf.Discard()
		qrTx := s.qr.WithStore(tx)

		scanned, err := qrTx.Transition(ctx, code.TransactionID, models.QRTypeDonor, models.QRStatusScanned, shop.ID)
		if err != nil {
			return err
		}
		if err := tx.Listings().MarkDroppedOff(ctx, itemID, shop.ID); err != nil {
			return err
		}
		if err := qrTx.SetDropOffLocation(ctx, code.TransactionID, shop.Address); err != nil {
			return err
		}
		scanned.DropOffLocation = shop.Address

		ev := a.event(models.ScanResultAccepted, "", s.now().UTC())
		if err := tx.ScanEvents().Create(ctx, ev); err != nil {
			return err
		}

		updated, err := tx.Listings().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		result = &Result{ScanResult: *ev, Listing: updated, QRCode: scanned}

		if code.ClaimRequestID == nil {
			return nil
		}
		owner, err := tx.Claims().GetByID(ctx, *code.ClaimRequestID)
		if err != nil {
			return err
		}
		codes, err := tx.QRCodes().ListByTransaction(ctx, code.TransactionID)
		if err != nil {
			return err
		}
		result.Claim = owner
		buf.Publish(ctx, events.TopicPartnerReady, events.PartnerReady{Request: *owner, QRCodes: codes})
		return nil
	})
	if err != nil {
		return nil, s.reject(ctx, a, err)
	}
	buf.Flush(ctx, s.publisher)

	s.metrics.Scan(string(a.action), string(models.ScanResultAccepted))
	s.log.Info("item dropped off",
		zap.String("item_id", itemID),
		zap.String("shop_id", shop.ID),
		zap.String("transaction_id", code.TransactionID),
	)
	return result, nil
}

func (s *service) ClaimOut(ctx context.Context, itemID string, req ClaimOutRequest, payload string) (*Result, error) {
	a := &attempt{itemID: itemID, shopID: req.ShopID, qrType: models.QRTypeCollector, action: models.ScanActionPickup}
	if p, err := qr.DecodePayload(payload); err == nil {
		a.transactionID = p.TransactionID
	}

	shop, listing, err := s.lookup(ctx, itemID, req.ShopID)
	if err != nil {
		return nil, s.reject(ctx, a, err)
	}

	active, err := s.activeClaim(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, s.reject(ctx, a, ErrNoActiveClaim)
	}
	if req.ClaimID != "" && req.ClaimID != active.ID {
		return nil, s.reject(ctx, a, ErrClaimMismatch)
	}
	if !stateOf(listing, active).Allowed(ModePickup) {
		return nil, s.reject(ctx, a, ErrPickupNotAllowed)
	}

	code, err := s.qr.Validate(ctx, payload, models.QRTypeCollector)
	if err != nil {
		return nil, s.reject(ctx, a, err)
	}
	if code.ItemID != itemID {
		return nil, s.reject(ctx, a, ErrWrongItem)
	}
	if code.ClaimRequestID == nil || *code.ClaimRequestID != active.ID {
		return nil, s.reject(ctx, a, ErrWrongClaim)
	}

	var result *Result
	buf := events.NewBuffer()
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		buf.Discard()

		released, err := s.qr.WithStore(tx).Transition(ctx, code.TransactionID, models.QRTypeCollector, models.QRStatusCompleted, shop.ID)
		if err != nil {
			return err
		}
		done, err := s.claims.Bind(tx, buf).Complete(ctx, active.ID)
		if err != nil {
			return err
		}

		ev := a.event(models.ScanResultReleased, "", s.now().UTC())
		if err := tx.ScanEvents().Create(ctx, ev); err != nil {
			return err
		}
		updated, err := tx.Listings().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		result = &Result{
			ScanResult:   *ev,
			Listing:      updated,
			QRCode:       released,
			Claim:        &done.Request,
			RewardPoints: done.RewardPoints,
		}
		return nil
	})
	if err != nil {
		return nil, s.reject(ctx, a, err)
	}
	buf.Flush(ctx, s.publisher)

	s.metrics.Scan(string(a.action), string(models.ScanResultReleased))
	s.log.Info("item released to collector",
		zap.String("item_id", itemID),
		zap.String("shop_id", shop.ID),
		zap.String("claim_request_id", active.ID),
		zap.Int("reward_points", result.RewardPoints),
	)
	return result, nil
}

func (s *service) ViewItem(ctx context.Context, itemID string) (*ItemView, error) {
	listing, err := s.store.Listings().GetByID(ctx, itemID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, domainErrors.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}

	active, err := s.activeClaim(ctx, itemID)
	if err != nil {
		return nil, err
	}
	scans, err := s.store.ScanEvents().ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if scans == nil {
		scans = []models.ScanEvent{}
	}

	return &ItemView{
		ItemID:       listing.ID,
		Status:       listing.Status,
		PickupStatus: listing.PickupStatus,
		Claim:        active,
		ScanState:    stateOf(listing, active),
		ScanEvents:   scans,
	}, nil
}

func (s *service) Resolve(ctx context.Context, payload, shopID string) (*Resolution, error) {
	if shopID != "" {
		if _, err := s.store.Shops().GetByID(ctx, shopID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, domainErrors.ErrShopNotFound
			}
			return nil, err
		}
	}

	p, err := qr.DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	listing, err := s.store.Listings().GetByID(ctx, p.ItemID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, domainErrors.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	active, err := s.activeClaim(ctx, p.ItemID)
	if err != nil {
		return nil, err
	}

	st := stateOf(listing, active)
	return &Resolution{
		ItemID:        p.ItemID,
		TransactionID: p.TransactionID,
		QRType:        p.Type,
		Listing:       listing,
		Claim:         active,
		ScanState:     st,
		Action:        st.ActionMode,
		Allowed:       st.Allowed(st.ActionMode) && st.ActionMode.qrType() == p.Type,
	}, nil
}
