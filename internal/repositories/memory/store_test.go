package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"handoff/internal/models"
	"handoff/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func claim(id, item, collector string, status models.ClaimStatus) *models.ClaimRequest {
	return &models.ClaimRequest{
		ID:          id,
		ItemID:      item,
		ItemTitle:   "Desk lamp",
		DonorID:     "donor-1",
		CollectorID: collector,
		Status:      status,
		CreatedAt:   t0,
	}
}

func TestClaims_CreateRejectsSecondOpenRequest(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Claims().Create(ctx, claim("r1", "item-1", "c1", models.ClaimStatusPending)))
	err := s.Claims().Create(ctx, claim("r2", "item-1", "c1", models.ClaimStatusPending))
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	// another collector is fine
	assert.NoError(t, s.Claims().Create(ctx, claim("r3", "item-1", "c2", models.ClaimStatusPending)))

	open, err := s.Claims().FindOpen(ctx, "item-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "r1", open.ID)
}

func TestClaims_CreateAllowedAfterCompletion(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Claims().Create(ctx, claim("r1", "item-1", "c1", models.ClaimStatusApproved)))
	ok, err := s.Claims().CompareAndSwapStatus(ctx, "r1", models.ClaimStatusApproved, models.ClaimStatusCompleted, t0)
	require.NoError(t, err)
	require.True(t, ok)

	assert.NoError(t, s.Claims().Create(ctx, claim("r2", "item-1", "c1", models.ClaimStatusPending)))
}

func TestClaims_CompareAndSwapStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Claims().Create(ctx, claim("r1", "item-1", "c1", models.ClaimStatusPending)))

	ok, err := s.Claims().CompareAndSwapStatus(ctx, "r1", models.ClaimStatusApproved, models.ClaimStatusCompleted, t0)
	require.NoError(t, err)
	assert.False(t, ok, "wrong source status must not swap")

	ok, err = s.Claims().CompareAndSwapStatus(ctx, "r1", models.ClaimStatusPending, models.ClaimStatusApproved, t0)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Claims().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusApproved, got.Status)
	require.NotNil(t, got.DecisionAt)
	assert.Nil(t, got.CompletedAt)

	ok, err = s.Claims().CompareAndSwapStatus(ctx, "missing", models.ClaimStatusPending, models.ClaimStatusApproved, t0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClaims_DeclinePending(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Claims().Create(ctx, claim("r1", "item-1", "c1", models.ClaimStatusPending)))
	require.NoError(t, s.Claims().Create(ctx, claim("r2", "item-1", "c2", models.ClaimStatusPending)))
	require.NoError(t, s.Claims().Create(ctx, claim("r3", "item-1", "c3", models.ClaimStatusPending)))
	require.NoError(t, s.Claims().Create(ctx, claim("r4", "item-2", "c1", models.ClaimStatusPending)))

	n, err := s.Claims().DeclinePending(ctx, "item-1", "r1", t0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	pending, err := s.Claims().CountByItemAndStatus(ctx, "item-1", models.ClaimStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	other, err := s.Claims().GetByID(ctx, "r4")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusPending, other.Status)
}

func TestClaims_ListOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i, id := range []string{"r1", "r2", "r3"} {
		c := claim(id, "item-1", "c"+id, models.ClaimStatusPending)
		c.CreatedAt = t0.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Claims().Create(ctx, c))
	}

	byItem, err := s.Claims().ListByItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2", "r3"}, claimIDs(byItem))

	byDonor, err := s.Claims().ListByDonor(ctx, "donor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r2", "r1"}, claimIDs(byDonor))
}

func TestExecuteInTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Claims().Create(ctx, claim("r1", "item-1", "c1", models.ClaimStatusPending)); err != nil {
			return err
		}
		if err := tx.Ledger().IncrementBalance(ctx, "donor-1", 25, t0); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Claims().GetByID(ctx, "r1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	balance, err := s.Ledger().GetBalance(ctx, "donor-1")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestExecuteInTransaction_CommitsAndNests(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Claims().Create(ctx, claim("r1", "item-1", "c1", models.ClaimStatusPending)); err != nil {
			return err
		}
		return tx.ExecuteInTransaction(ctx, func(inner repositories.Store) error {
			// the outer write is visible inside the nested call
			_, err := inner.Claims().GetByID(ctx, "r1")
			return err
		})
	})
	require.NoError(t, err)

	_, err = s.Claims().GetByID(ctx, "r1")
	assert.NoError(t, err)
}

func TestExecuteInTransaction_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := New().ExecuteInTransaction(ctx, func(repositories.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestQRCodes_UpsertKeepsIDAndCAS(t *testing.T) {
	ctx := context.Background()
	s := New()

	code := &models.QRCode{
		ID: "qr-1", TransactionID: "tx-1", Type: models.QRTypeDonor,
		ItemID: "item-1", UserID: "donor-1", Status: models.QRStatusActive,
		ExpiresAt: t0.Add(time.Hour), CreatedAt: t0,
	}
	require.NoError(t, s.QRCodes().Upsert(ctx, code))

	replacement := *code
	replacement.ID = "qr-2"
	replacement.ExpiresAt = t0.Add(2 * time.Hour)
	require.NoError(t, s.QRCodes().Upsert(ctx, &replacement))
	assert.Equal(t, "qr-1", replacement.ID)

	got, err := s.QRCodes().GetByTransaction(ctx, "tx-1", models.QRTypeDonor)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(2*time.Hour), got.ExpiresAt)

	late := t0.Add(3 * time.Hour)
	ok, err := s.QRCodes().CompareAndSwapStatus(ctx, repositories.QRStatusChange{
		TransactionID: "tx-1", Type: models.QRTypeDonor,
		From: []models.QRStatus{models.QRStatusActive}, To: models.QRStatusScanned,
		At: late, NotExpiredAt: &late,
	})
	require.NoError(t, err)
	assert.False(t, ok, "expired code must not transition")

	now := t0.Add(time.Minute)
	ok, err = s.QRCodes().CompareAndSwapStatus(ctx, repositories.QRStatusChange{
		TransactionID: "tx-1", Type: models.QRTypeDonor,
		From: []models.QRStatus{models.QRStatusActive}, To: models.QRStatusScanned,
		At: now, NotExpiredAt: &now, ShopID: "shop-1",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = s.QRCodes().GetByTransaction(ctx, "tx-1", models.QRTypeDonor)
	require.NoError(t, err)
	assert.Equal(t, models.QRStatusScanned, got.Status)
	assert.Equal(t, "shop-1", got.ScannedByShopID)
	require.NotNil(t, got.ScannedAt)

	_, err = s.QRCodes().GetByTransaction(ctx, "tx-1", models.QRTypeCollector)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestLedger_EntryIsUniquePerRequest(t *testing.T) {
	ctx := context.Background()
	s := New()

	entry := &models.RewardEntry{ID: "e1", DonorID: "donor-1", ClaimRequestID: "r1", Points: 25, CreatedAt: t0}
	require.NoError(t, s.Ledger().AppendEntry(ctx, entry))
	again := *entry
	again.ID = "e2"
	assert.ErrorIs(t, s.Ledger().AppendEntry(ctx, &again), repositories.ErrDuplicate)

	require.NoError(t, s.Ledger().IncrementBalance(ctx, "donor-1", 25, t0))
	require.NoError(t, s.Ledger().IncrementBalance(ctx, "donor-1", 10, t0))
	balance, err := s.Ledger().GetBalance(ctx, "donor-1")
	require.NoError(t, err)
	assert.Equal(t, 35, balance)

	entries, err := s.Ledger().ListEntries(ctx, "donor-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListings_MarkMissing(t *testing.T) {
	ctx := context.Background()
	s := New()
	assert.ErrorIs(t, s.Listings().MarkCollected(ctx, "nope"), repositories.ErrNotFound)
	assert.ErrorIs(t, s.Listings().MarkDroppedOff(ctx, "nope", "shop-1"), repositories.ErrNotFound)
}

func claimIDs(reqs []models.ClaimRequest) []string {
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	return ids
}
