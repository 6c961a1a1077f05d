package memory

import (
	"context"
	"handoff/internal/models"
	"handoff/internal/repositories"
	"sort"
	"time"
)

type claimRepo struct{ s *Store }

func (r claimRepo) Create(ctx context.Context, req *models.ClaimRequest) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.claims[req.ID]; ok {
			return repositories.ErrDuplicate
		}
		if req.Status != models.ClaimStatusCompleted {
			for _, other := range st.claims {
				if other.ItemID == req.ItemID && other.CollectorID == req.CollectorID &&
					other.Status != models.ClaimStatusCompleted {
					return repositories.ErrDuplicate
				}
			}
		}
		if req.UpdatedAt.IsZero() {
			req.UpdatedAt = req.CreatedAt
		}
		st.claims[req.ID] = *req
		return nil
	})
}

func (r claimRepo) GetByID(ctx context.Context, id string) (*models.ClaimRequest, error) {
	var out *models.ClaimRequest
	err := r.s.with(ctx, func(st *state) error {
		req, ok := st.claims[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &req
		return nil
	})
	return out, err
}

// GetByIDForUpdate is GetByID: the store lock already serializes writers.
func (r claimRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.ClaimRequest, error) {
	return r.GetByID(ctx, id)
}

func (r claimRepo) FindOpen(ctx context.Context, itemID, collectorID string) (*models.ClaimRequest, error) {
	var out *models.ClaimRequest
	err := r.s.with(ctx, func(st *state) error {
		for _, req := range st.claims {
			if req.ItemID == itemID && req.CollectorID == collectorID && req.Status != models.ClaimStatusCompleted {
				req := req
				out = &req
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r claimRepo) FindByItemAndStatus(ctx context.Context, itemID string, statuses ...models.ClaimStatus) ([]models.ClaimRequest, error) {
	return r.filter(ctx, false, func(req models.ClaimRequest) bool {
		if req.ItemID != itemID {
			return false
		}
		for _, s := range statuses {
			if req.Status == s {
				return true
			}
		}
		return false
	})
}

func (r claimRepo) ListByItem(ctx context.Context, itemID string) ([]models.ClaimRequest, error) {
	return r.filter(ctx, false, func(req models.ClaimRequest) bool { return req.ItemID == itemID })
}

func (r claimRepo) ListByItemForUpdate(ctx context.Context, itemID string) ([]models.ClaimRequest, error) {
	return r.ListByItem(ctx, itemID)
}

func (r claimRepo) ListByDonor(ctx context.Context, donorID string) ([]models.ClaimRequest, error) {
	return r.filter(ctx, true, func(req models.ClaimRequest) bool { return req.DonorID == donorID })
}

func (r claimRepo) ListByCollector(ctx context.Context, collectorID string) ([]models.ClaimRequest, error) {
	return r.filter(ctx, true, func(req models.ClaimRequest) bool { return req.CollectorID == collectorID })
}

func (r claimRepo) CountByItemAndStatus(ctx context.Context, itemID string, status models.ClaimStatus) (int64, error) {
	reqs, err := r.FindByItemAndStatus(ctx, itemID, status)
	return int64(len(reqs)), err
}

func (r claimRepo) CompareAndSwapStatus(ctx context.Context, id string, from, to models.ClaimStatus, at time.Time) (bool, error) {
	swapped := false
	err := r.s.with(ctx, func(st *state) error {
		req, ok := st.claims[id]
		if !ok || req.Status != from {
			return nil
		}
		setClaimStatus(&req, to, at)
		st.claims[id] = req
		swapped = true
		return nil
	})
	return swapped, err
}

func (r claimRepo) DeclinePending(ctx context.Context, itemID, exceptID string, at time.Time) (int64, error) {
	var n int64
	err := r.s.with(ctx, func(st *state) error {
		for id, req := range st.claims {
			if req.ItemID != itemID || id == exceptID || req.Status != models.ClaimStatusPending {
				continue
			}
			setClaimStatus(&req, models.ClaimStatusDeclined, at)
			st.claims[id] = req
			n++
		}
		return nil
	})
	return n, err
}

func (r claimRepo) filter(ctx context.Context, newestFirst bool, keep func(models.ClaimRequest) bool) ([]models.ClaimRequest, error) {
	var out []models.ClaimRequest
	err := r.s.with(ctx, func(st *state) error {
		for _, req := range st.claims {
			if keep(req) {
				out = append(out, req)
			}
		}
		return nil
	})
	sortClaims(out, newestFirst)
	return out, err
}

func setClaimStatus(req *models.ClaimRequest, to models.ClaimStatus, at time.Time) {
	t := at
	req.Status = to
	req.UpdatedAt = at
	if to == models.ClaimStatusCompleted {
		req.CompletedAt = &t
	} else {
		req.DecisionAt = &t
	}
}

type qrRepo struct{ s *Store }

func (r qrRepo) Upsert(ctx context.Context, codes ...*models.QRCode) error {
	return r.s.with(ctx, func(st *state) error {
		for _, code := range codes {
			key := qrKey{code.TransactionID, code.Type}
			if prev, ok := st.qrCodes[key]; ok {
				code.ID = prev.ID
			}
			st.qrCodes[key] = *code
		}
		return nil
	})
}

func (r qrRepo) GetByTransaction(ctx context.Context, transactionID string, qrType models.QRType) (*models.QRCode, error) {
	var out *models.QRCode
	err := r.s.with(ctx, func(st *state) error {
		code, ok := st.qrCodes[qrKey{transactionID, qrType}]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &code
		return nil
	})
	return out, err
}

func (r qrRepo) ListByTransaction(ctx context.Context, transactionID string) ([]models.QRCode, error) {
	return r.filter(ctx, func(c models.QRCode) bool { return c.TransactionID == transactionID })
}

func (r qrRepo) ListByUser(ctx context.Context, userID string) ([]models.QRCode, error) {
	return r.filter(ctx, func(c models.QRCode) bool { return c.UserID == userID })
}

func (r qrRepo) ListByClaim(ctx context.Context, claimRequestID string) ([]models.QRCode, error) {
	return r.filter(ctx, func(c models.QRCode) bool {
		return c.ClaimRequestID != nil && *c.ClaimRequestID == claimRequestID
	})
}

func (r qrRepo) CompareAndSwapStatus(ctx context.Context, change repositories.QRStatusChange) (bool, error) {
	swapped := false
	err := r.s.with(ctx, func(st *state) error {
		key := qrKey{change.TransactionID, change.Type}
		code, ok := st.qrCodes[key]
		if !ok || !statusIn(code.Status, change.From) {
			return nil
		}
		if change.NotExpiredAt != nil && code.ExpiresAt.Before(*change.NotExpiredAt) {
			return nil
		}
		at := change.At
		code.Status = change.To
		code.UpdatedAt = at
		switch change.To {
		case models.QRStatusScanned:
			code.ScannedAt = &at
			code.ScannedByShopID = change.ShopID
		case models.QRStatusCompleted:
			code.CompletedAt = &at
		}
		st.qrCodes[key] = code
		swapped = true
		return nil
	})
	return swapped, err
}

func (r qrRepo) SetDropOffLocation(ctx context.Context, transactionID, location string) error {
	return r.s.with(ctx, func(st *state) error {
		for key, code := range st.qrCodes {
			if key.transactionID == transactionID {
				code.DropOffLocation = location
				st.qrCodes[key] = code
			}
		}
		return nil
	})
}

func (r qrRepo) filter(ctx context.Context, keep func(models.QRCode) bool) ([]models.QRCode, error) {
	var out []models.QRCode
	err := r.s.with(ctx, func(st *state) error {
		for _, code := range st.qrCodes {
			if keep(code) {
				out = append(out, code)
			}
		}
		return nil
	})
	sortCodes(out)
	return out, err
}

func statusIn(s models.QRStatus, set []models.QRStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

type ledgerRepo struct{ s *Store }

func (r ledgerRepo) AppendEntry(ctx context.Context, entry *models.RewardEntry) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.entries[entry.ClaimRequestID]; ok {
			return repositories.ErrDuplicate
		}
		st.entries[entry.ClaimRequestID] = *entry
		return nil
	})
}

func (r ledgerRepo) IncrementBalance(ctx context.Context, donorID string, points int, at time.Time) error {
	return r.s.with(ctx, func(st *state) error {
		row := st.balances[donorID]
		row.DonorID = donorID
		row.Balance += points
		row.UpdatedAt = at
		st.balances[donorID] = row
		return nil
	})
}

func (r ledgerRepo) GetBalance(ctx context.Context, donorID string) (int, error) {
	balance := 0
	err := r.s.with(ctx, func(st *state) error {
		balance = st.balances[donorID].Balance
		return nil
	})
	return balance, err
}

func (r ledgerRepo) ListEntries(ctx context.Context, donorID string) ([]models.RewardEntry, error) {
	var out []models.RewardEntry
	err := r.s.with(ctx, func(st *state) error {
		for _, e := range st.entries {
			if e.DonorID == donorID {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r ledgerRepo) MarkCollected(ctx context.Context, item *models.CollectedItem) error {
	return r.s.with(ctx, func(st *state) error {
		st.collected[item.ItemID] = *item
		return nil
	})
}

func (r ledgerRepo) GetCollected(ctx context.Context, itemID string) (*models.CollectedItem, error) {
	var out *models.CollectedItem
	err := r.s.with(ctx, func(st *state) error {
		item, ok := st.collected[itemID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &item
		return nil
	})
	return out, err
}

type listingRepo struct{ s *Store }

func (r listingRepo) Create(ctx context.Context, listing *models.Listing) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.listings[listing.ID]; ok {
			return repositories.ErrDuplicate
		}
		st.listings[listing.ID] = *listing
		return nil
	})
}

func (r listingRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var out *models.Listing
	err := r.s.with(ctx, func(st *state) error {
		listing, ok := st.listings[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &listing
		return nil
	})
	return out, err
}

func (r listingRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Listing, error) {
	return r.GetByID(ctx, id)
}

func (r listingRepo) MarkDroppedOff(ctx context.Context, id, shopID string) error {
	return r.update(ctx, id, func(l *models.Listing) {
		shop := shopID
		l.PickupStatus = models.PickupStatusAwaitingCollection
		l.DropOffShopID = &shop
	})
}

func (r listingRepo) MarkCollected(ctx context.Context, id string) error {
	return r.update(ctx, id, func(l *models.Listing) {
		l.Status = models.ListingStatusCollected
		l.PickupStatus = models.PickupStatusCollected
	})
}

func (r listingRepo) update(ctx context.Context, id string, mutate func(*models.Listing)) error {
	return r.s.with(ctx, func(st *state) error {
		listing, ok := st.listings[id]
		if !ok {
			return repositories.ErrNotFound
		}
		mutate(&listing)
		st.listings[id] = listing
		return nil
	})
}

type shopRepo struct{ s *Store }

func (r shopRepo) Create(ctx context.Context, shop *models.PartnerShop) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.shops[shop.ID]; ok {
			return repositories.ErrDuplicate
		}
		st.shops[shop.ID] = *shop
		return nil
	})
}

func (r shopRepo) GetByID(ctx context.Context, id string) (*models.PartnerShop, error) {
	var out *models.PartnerShop
	err := r.s.with(ctx, func(st *state) error {
		shop, ok := st.shops[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &shop
		return nil
	})
	return out, err
}

type scanRepo struct{ s *Store }

func (r scanRepo) Create(ctx context.Context, event *models.ScanEvent) error {
	return r.s.with(ctx, func(st *state) error {
		st.scans = append(st.scans, *event)
		return nil
	})
}

func (r scanRepo) ListByItem(ctx context.Context, itemID string) ([]models.ScanEvent, error) {
	var out []models.ScanEvent
	err := r.s.with(ctx, func(st *state) error {
		for _, e := range st.scans {
			if e.ItemID == itemID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}
