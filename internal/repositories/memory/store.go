// Package memory implements repositories.Store in process memory. Every
// operation is serialized through one mutex; a transaction works on a copy
// of the state that replaces the committed state only when fn succeeds.
package memory

import (
	"context"
	"handoff/internal/models"
	"handoff/internal/repositories"
	"sort"
	"sync"
)

type qrKey struct {
	transactionID string
	qrType        models.QRType
}

type state struct {
	claims    map[string]models.ClaimRequest
	qrCodes   map[qrKey]models.QRCode
	balances  map[string]models.RewardBalance
	entries   map[string]models.RewardEntry // by claim request id
	collected map[string]models.CollectedItem
	listings  map[string]models.Listing
	shops     map[string]models.PartnerShop
	scans     []models.ScanEvent
}

func newState() *state {
	return &state{
		claims:    make(map[string]models.ClaimRequest),
		qrCodes:   make(map[qrKey]models.QRCode),
		balances:  make(map[string]models.RewardBalance),
		entries:   make(map[string]models.RewardEntry),
		collected: make(map[string]models.CollectedItem),
		listings:  make(map[string]models.Listing),
		shops:     make(map[string]models.PartnerShop),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.claims {
		c.claims[k] = v
	}
	for k, v := range s.qrCodes {
		c.qrCodes[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.collected {
		c.collected[k] = v
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.shops {
		c.shops[k] = v
	}
	c.scans = append([]models.ScanEvent(nil), s.scans...)
	return c
}

// Store is safe for concurrent use. The zero value is not usable; call New.
type Store struct {
	mu   *sync.Mutex
	root *state
	// tx is the working copy while inside ExecuteInTransaction; mu is
	// held for its whole lifetime.
	tx *state
}

func New() *Store {
	return &Store{mu: &sync.Mutex{}, root: newState()}
}

func (s *Store) Claims() repositories.ClaimRequestRepository { return claimRepo{s} }
func (s *Store) QRCodes() repositories.QRCodeRepository       { return qrRepo{s} }
func (s *Store) Ledger() repositories.LedgerRepository        { return ledgerRepo{s} }
func (s *Store) Listings() repositories.ListingRepository     { return listingRepo{s} }
func (s *Store) Shops() repositories.ShopRepository           { return shopRepo{s} }
func (s *Store) ScanEvents() repositories.ScanEventRepository { return scanRepo{s} }

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.root.clone()
	if err := fn(&Store{mu: s.mu, root: s.root, tx: work}); err != nil {
		return err
	}
	*s.root = *work
	return nil
}

// with runs fn against the visible state.
func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s.tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.root)
}

func sortClaims(reqs []models.ClaimRequest, newestFirst bool) {
	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].ID < reqs[j].ID
		}
		if newestFirst {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
	})
}

func sortCodes(codes []models.QRCode) {
	sort.SliceStable(codes, func(i, j int) bool {
		a, b := codes[i], codes[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.TransactionID != b.TransactionID {
			return a.TransactionID < b.TransactionID
		}
		return a.Type < b.Type
	})
}
