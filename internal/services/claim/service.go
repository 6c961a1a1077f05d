package claim

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "handoff/internal/errors"
	"handoff/internal/events"
	"handoff/internal/metrics"
	"handoff/internal/models"
	"handoff/internal/repositories"
	"handoff/internal/services/qr"
	"handoff/internal/services/reward"
	"handoff/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// errLostCreateRace aborts a submit transaction whose insert collided with
// a concurrent submit of the same pair.
var errLostCreateRace = errors.New("concurrent claim submission")

type service struct {
	store     repositories.Store
	qr        qr.Service
	rewards   reward.Service
	publisher events.Publisher
	cfg       Config
	metrics   metrics.Recorder
	log       *zap.Logger

	// buf is set on a bound service: writes join the caller's
	// transaction and events wait for its commit.
	buf *events.Buffer
}

// NewService creates the claim request manager.
func NewService(store repositories.Store, qrSvc qr.Service, rewards reward.Service,
	publisher events.Publisher, cfg Config, rec metrics.Recorder, log *zap.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if qrSvc == nil {
		panic("qr service is required")
	}
	if rewards == nil {
		panic("reward service is required")
	}
	if publisher == nil {
		panic("event publisher is required")
	}
	if cfg.RewardPoints <= 0 {
		cfg.RewardPoints = DefaultRewardPoints
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
		rewards:   rewards,
		publisher: publisher,
		cfg:       cfg,
		metrics:   rec,
		log:       log,
	}
}

func (s *service) Bind(store repositories.Store, buf *events.Buffer) Service {
	clone := *s
	clone.store = store
	clone.buf = buf
	return &clone
}

func (s *service) now() time.Time {
	return s.cfg.Now().UTC()
}

// run executes fn atomically and publishes what it queued once committed.
func (s *service) run(ctx context.Context, fn func(tx repositories.Store, buf *events.Buffer) error) error {
	if s.buf != nil {
		return fn(s.store, s.buf)
	}

	buf := events.NewBuffer()
	if err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		return fn(tx, buf)
	}); err != nil {
		return err
	}
	buf.Flush(ctx, s.publisher)
	return nil
}

func (s *service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	var result *SubmitResult
	err := s.run(ctx, func(tx repositories.Store, buf *events.Buffer) error {
		if err := s.applyListing(ctx, tx, &in); err != nil {
			return err
		}
		v := validation.New()
		v.Struct(in)
		v.Check(in.CollectorID == "" || in.CollectorID != in.DonorID, "collectorId", "cannot claim your own item")
		if err := v.Err(); err != nil {
			return err
		}

		existing, err := tx.Claims().FindOpen(ctx, in.ItemID, in.CollectorID)
		switch {
		case err == nil:
			result = &SubmitResult{Request: *existing, Existing: true}
			return nil
		case !errors.Is(err, repositories.ErrNotFound):
			return err
		}

		now := s.now()
		req := &models.ClaimRequest{
			ID:            uuid.NewString(),
			ItemID:        in.ItemID,
			ItemTitle:     in.ItemTitle,
			DonorID:       in.DonorID,
			DonorName:     in.DonorName,
			CollectorID:   in.CollectorID,
			CollectorName: in.CollectorName,
			Note:          in.Note,
			Status:        models.ClaimStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Claims().Create(ctx, req); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return errLostCreateRace
			}
			return err
		}

		result = &SubmitResult{Request: *req}
		buf.Publish(ctx, events.TopicClaimRequested, events.ClaimRequested{Request: *req})
		buf.AfterCommit(func(context.Context) { s.metrics.ClaimSubmitted() })
		return nil
	})

	if errors.Is(err, errLostCreateRace) {
		existing, findErr := s.store.Claims().FindOpen(ctx, in.ItemID, in.CollectorID)
		if findErr != nil {
			return nil, fmt.Errorf("failed to load concurrent claim: %w", findErr)
		}
		return &SubmitResult{Request: *existing, Existing: true}, nil
	}
	if err != nil {
		s.metrics.Error("claim_submit")
		return nil, err
	}

	if result.Existing {
		s.log.Debug("claim already open",
			zap.String("request_id", result.Request.ID),
			zap.String("item_id", in.ItemID),
			zap.String("collector_id", in.CollectorID),
		)
	} else {
		s.log.Info("claim submitted",
			zap.String("request_id", result.Request.ID),
			zap.String("item_id", in.ItemID),
		)
	}
	return result, nil
}

// applyListing fills submission fields from the listing when the item is
// known locally and rejects claims on collected or foreign items.
func (s *service) applyListing(ctx context.Context, tx repositories.Store, in *SubmitInput) error {
	if in.ItemID == "" {
		return nil
	}
	listing, err := tx.Listings().GetByID(ctx, in.ItemID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if listing.Status == models.ListingStatusCollected {
		return ErrItemCollected
	}
	if in.DonorID == "" {
		in.DonorID = listing.DonorID
	} else if in.DonorID != listing.DonorID {
		return ErrNotOwner
	}
	if in.ItemTitle == "" {
		in.ItemTitle = listing.Title
	}
	if in.DonorName == "" {
		in.DonorName = listing.DonorName
	}
	return nil
}

// listingFromRequest stands in for an item listed outside the local store.
// Its codes carry only what the request knows and empty metadata.
func listingFromRequest(req *models.ClaimRequest) *models.Listing {
	return &models.Listing{
		ID:        req.ItemID,
		Title:     req.ItemTitle,
		DonorID:   req.DonorID,
		DonorName: req.DonorName,
		Status:    models.ListingStatusAvailable,
	}
}

func (s *service) Approve(ctx context.Context, requestID string) (*ApproveResult, error) {
	var result *ApproveResult
	err := s.run(ctx, func(tx repositories.Store, buf *events.Buffer) error {
		// Lock order is listing, then the item's requests; Complete
		// follows the same order.
		first, err := s.find(ctx, tx, requestID)
		if err != nil {
			return err
		}

		listing, err := tx.Listings().GetByIDForUpdate(ctx, first.ItemID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			listing = listingFromRequest(first)
		case err != nil:
			return err
		}

		siblings, err := tx.Claims().ListByItemForUpdate(ctx, first.ItemID)
		if err != nil {
			return err
		}
		target := first
		for i := range siblings {
			if siblings[i].ID == requestID {
				target = &siblings[i]
			}
		}
		var pending []models.ClaimRequest
		for _, r := range siblings {
			if r.ID == requestID {
				continue
			}
			switch r.Status {
			case models.ClaimStatusApproved, models.ClaimStatusCompleted:
				if target.Status == models.ClaimStatusPending {
					return ErrItemAlreadyClaimed
				}
			case models.ClaimStatusPending:
				pending = append(pending, r)
			}
		}

		if target.Status.IsTerminal() {
			return errCannot("approve", target.Status)
		}
		if target.Status == models.ClaimStatusApproved {
			result = &ApproveResult{
				Request:     *target,
				DeclinedIDs: []string{},
				ChatID:      events.ChatID(target.ItemID, target.DonorID, target.CollectorID),
			}
			return nil
		}
		if listing.Status == models.ListingStatusCollected {
			return ErrItemCollected
		}

		now := s.now()
		ok, err := tx.Claims().CompareAndSwapStatus(ctx, requestID, models.ClaimStatusPending, models.ClaimStatusApproved, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConcurrentUpdate
		}
		target.Status = models.ClaimStatusApproved
		target.DecisionAt = &now
		target.UpdatedAt = now

		declined, err := tx.Claims().DeclinePending(ctx, target.ItemID, requestID, now)
		if err != nil {
			return err
		}
		if int(declined) != len(pending) {
			return ErrConcurrentUpdate
		}

		pair, err := s.qr.WithStore(tx).IssuePair(ctx, listing, target)
		if err != nil {
			return err
		}

		chatID := events.ChatID(target.ItemID, target.DonorID, target.CollectorID)
		result = &ApproveResult{Request: *target, Pair: pair, ChatID: chatID, DeclinedIDs: make([]string, 0, len(pending))}

		buf.Publish(ctx, events.TopicClaimApproved, events.ClaimApproved{Request: *target, ChatID: chatID})
		for _, r := range pending {
			r.Status = models.ClaimStatusDeclined
			r.DecisionAt = &now
			r.UpdatedAt = now
			result.DeclinedIDs = append(result.DeclinedIDs, r.ID)
			buf.Publish(ctx, events.TopicClaimDeclined, events.ClaimDeclined{Request: r})
		}
		buf.AfterCommit(func(context.Context) { s.metrics.ClaimApproved(len(pending)) })
		return nil
	})
	if err != nil {
		s.metrics.Error("claim_approve")
		return nil, err
	}

	if result.Pair != nil {
		s.log.Info("claim approved",
			zap.String("request_id", requestID),
			zap.String("item_id", result.Request.ItemID),
			zap.String("transaction_id", result.Pair.TransactionID),
			zap.Int("declined", len(result.DeclinedIDs)),
		)
	}
	return result, nil
}

func (s *service) Decline(ctx context.Context, requestID string) (*models.ClaimRequest, error) {
	var out *models.ClaimRequest
	err := s.run(ctx, func(tx repositories.Store, buf *events.Buffer) error {
		req, err := s.load(ctx, tx, requestID)
		if err != nil {
			return err
		}
		switch req.Status {
		case models.ClaimStatusDeclined:
			out = req
			return nil
		case models.ClaimStatusPending:
		default:
			return errCannot("decline", req.Status)
		}

		now := s.now()
		ok, err := tx.Claims().CompareAndSwapStatus(ctx, requestID, models.ClaimStatusPending, models.ClaimStatusDeclined, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConcurrentUpdate
		}
		req.Status = models.ClaimStatusDeclined
		req.DecisionAt = &now
		req.UpdatedAt = now
		out = req

		buf.Publish(ctx, events.TopicClaimDeclined, events.ClaimDeclined{Request: *req})
		buf.AfterCommit(func(context.Context) { s.metrics.ClaimDeclined() })
		return nil
	})
	if err != nil {
		s.metrics.Error("claim_decline")
		return nil, err
	}
	return out, nil
}

func (s *service) Complete(ctx context.Context, requestID string) (*CompleteResult, error) {
	return s.CompleteWithPoints(ctx, requestID, s.cfg.RewardPoints)
}

func (s *service) CompleteWithPoints(ctx context.Context, requestID string, points int) (*CompleteResult, error) {
	if points < 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	var result *CompleteResult
	err := s.run(ctx, func(tx repositories.Store, buf *events.Buffer) error {
		first, err := s.find(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if _, err := tx.Listings().GetByIDForUpdate(ctx, first.ItemID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		req, err := s.load(ctx, tx, requestID)
		if err != nil {
			return err
		}
		switch req.Status {
		case models.ClaimStatusCompleted:
			result = &CompleteResult{Request: *req, AlreadyCompleted: true}
			return nil
		case models.ClaimStatusApproved:
		default:
			return errCannot("complete", req.Status)
		}

		now := s.now()
		ok, err := tx.Claims().CompareAndSwapStatus(ctx, requestID, models.ClaimStatusApproved, models.ClaimStatusCompleted, now)
		if err != nil {
			return err
		}
		if !ok {
			// Lost to a concurrent completion.
			current, err := s.load(ctx, tx, requestID)
			if err != nil {
				return err
			}
			if current.Status == models.ClaimStatusCompleted {
				result = &CompleteResult{Request: *current, AlreadyCompleted: true}
				return nil
			}
			return ErrConcurrentUpdate
		}
		req.Status = models.ClaimStatusCompleted
		req.CompletedAt = &now
		req.UpdatedAt = now

		rewards := s.rewards.WithStore(tx)
		if err := rewards.Credit(ctx, req.DonorID, req.ID, points); err != nil {
			return err
		}
		if err := rewards.MarkCollected(ctx, req.ItemID, req.ID); err != nil {
			return err
		}
		if err := tx.Listings().MarkCollected(ctx, req.ItemID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		result = &CompleteResult{Request: *req, RewardPoints: points}
		donorID := req.DonorID
		buf.AfterCommit(func(ctx context.Context) {
			s.rewards.InvalidateBalance(ctx, donorID)
			s.metrics.ClaimCompleted(points)
		})
		buf.Publish(ctx, events.TopicCollectionConfirmed, events.CollectionConfirmed{Request: *req, RewardPoints: points})
		return nil
	})
	if err != nil {
		s.metrics.Error("claim_complete")
		return nil, err
	}

	if !result.AlreadyCompleted {
		s.log.Info("claim completed",
			zap.String("request_id", requestID),
			zap.String("donor_id", result.Request.DonorID),
			zap.Int("reward_points", points),
		)
	}
	return result, nil
}

func (s *service) find(ctx context.Context, tx repositories.Store, requestID string) (*models.ClaimRequest, error) {
	req, err := tx.Claims().GetByID(ctx, requestID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, domainErrors.ErrClaimNotFound
	}
	return req, err
}

// load reads the request and locks its row.
func (s *service) load(ctx context.Context, tx repositories.Store, requestID string) (*models.ClaimRequest, error) {
	req, err := tx.Claims().GetByIDForUpdate(ctx, requestID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, domainErrors.ErrClaimNotFound
	}
	return req, err
}
