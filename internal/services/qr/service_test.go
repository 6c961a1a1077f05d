package qr

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	domainErrors "handoff/internal/errors"
	"handoff/internal/models"
	"handoff/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setup(t *testing.T) (Service, *memory.Store, *clock) {
	t.Helper()
	store := memory.New()
	clk := &clock{t: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)}
	svc := NewService(store, Config{Now: clk.Now}, nil, nil)
	return svc, store, clk
}

func testListing() *models.Listing {
	return &models.Listing{
		ID:           "item-1",
		Title:        "Winter coat",
		Description:  "Warm, size M",
		ImageURL:     "https://img.example/coat.jpg",
		DonorID:      "donor-1",
		DonorName:    "Dana",
		Category:     "clothing",
		Condition:    "good",
		CO2Impact:    12.5,
		ActionType:   "donate",
		PickupOption: "Donate",
		Status:       models.ListingStatusAvailable,
	}
}

func testRequest() *models.ClaimRequest {
	return &models.ClaimRequest{
		ID:            "req-1",
		ItemID:        "item-1",
		DonorID:       "donor-1",
		DonorName:     "Dana",
		CollectorID:   "collector-1",
		CollectorName: "Cole",
		Status:        models.ClaimStatusApproved,
	}
}

func payloadFor(t *testing.T, svc Service, code *models.QRCode) string {
	t.Helper()
	raw, err := svc.EncodePayload(context.Background(), code)
	require.NoError(t, err)
	return raw
}

func TestIssuePair(t *testing.T) {
	svc, _, clk := setup(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, testListing(), testRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, pair.TransactionID)
	assert.Equal(t, pair.TransactionID, pair.Donor.TransactionID)
	assert.Equal(t, pair.TransactionID, pair.Collector.TransactionID)
	assert.Equal(t, "donor-1", pair.Donor.UserID)
	assert.Equal(t, "collector-1", pair.Collector.UserID)
	assert.Equal(t, models.QRStatusActive, pair.Donor.Status)
	assert.Equal(t, clk.Now().Add(DefaultPairTTL), pair.Donor.ExpiresAt)
	assert.Equal(t, "clothing", pair.Collector.Metadata.Category)
	assert.Empty(t, pair.Collector.DropOffLocation)

	codes, err := svc.ListByClaim(ctx, "req-1")
	require.NoError(t, err)
	assert.Len(t, codes, 2)
}

func TestIssueStandalone(t *testing.T) {
	svc, _, clk := setup(t)
	ctx := context.Background()

	code, err := svc.IssueStandalone(ctx, testListing())
	require.NoError(t, err)
	assert.Equal(t, models.QRTypeDonor, code.Type)
	assert.Nil(t, code.ClaimRequestID)
	assert.Equal(t, clk.Now().Add(DefaultStandaloneTTL), code.ExpiresAt)

	pickup := testListing()
	pickup.PickupOption = "pickup"
	_, err = svc.IssueStandalone(ctx, pickup)
	assert.ErrorIs(t, err, domainErrors.ErrIllegalTransition)
}

func TestEncodePayload(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, store.Listings().Create(ctx, testListing()))

	pair, err := svc.IssuePair(ctx, testListing(), testRequest())
	require.NoError(t, err)

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(payloadFor(t, svc, pair.Collector)), &p))
	assert.Equal(t, pair.TransactionID, p.TransactionID)
	assert.Equal(t, models.QRTypeCollector, p.Type)
	assert.Equal(t, "Warm, size M", p.ItemDescription)
	assert.Equal(t, "https://img.example/coat.jpg", p.ItemImage)
	assert.Equal(t, "Cole", p.UserName)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid donor code", func(t *testing.T) {
		svc, _, _ := setup(t)
		pair, err := svc.IssuePair(ctx, testListing(), testRequest())
		require.NoError(t, err)

		code, err := svc.Validate(ctx, payloadFor(t, svc, pair.Donor), "")
		require.NoError(t, err)
		assert.Equal(t, pair.Donor.ID, code.ID)
	})

	t.Run("garbage payload", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Validate(ctx, "not json", "")
		assert.ErrorIs(t, err, domainErrors.ErrInvalidPayload)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Validate(ctx, `{"transactionId":"nope","type":"donor","itemId":"item-1"}`, "")
		assert.ErrorIs(t, err, domainErrors.ErrQRNotFound)
	})

	t.Run("role mismatch", func(t *testing.T) {
		svc, _, _ := setup(t)
		pair, err := svc.IssuePair(ctx, testListing(), testRequest())
		require.NoError(t, err)

		_, err = svc.Validate(ctx, payloadFor(t, svc, pair.Donor), models.QRTypeCollector)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidPayload)
	})

	t.Run("expired code is marked expired", func(t *testing.T) {
		svc, store, clk := setup(t)
		pair, err := svc.IssuePair(ctx, testListing(), testRequest())
		require.NoError(t, err)
		raw := payloadFor(t, svc, pair.Donor)

		clk.Advance(49 * time.Hour)
		_, err = svc.Validate(ctx, raw, "")
		assert.ErrorIs(t, err, domainErrors.ErrQRExpired)

		stored, err := store.QRCodes().GetByTransaction(ctx, pair.TransactionID, models.QRTypeDonor)
		require.NoError(t, err)
		assert.Equal(t, models.QRStatusExpired, stored.Status)
	})

	t.Run("used donor code", func(t *testing.T) {
		svc, _, _ := setup(t)
		pair, err := svc.IssuePair(ctx, testListing(), testRequest())
		require.NoError(t, err)
		_, err = svc.Transition(ctx, pair.TransactionID, models.QRTypeDonor, models.QRStatusScanned, "shop-1")
		require.NoError(t, err)

		_, err = svc.Validate(ctx, payloadFor(t, svc, pair.Donor), "")
		assert.ErrorIs(t, err, domainErrors.ErrQRAlreadyUsed)

		// the collector code stays valid after the drop-off
		_, err = svc.Validate(ctx, payloadFor(t, svc, pair.Collector), "")
		assert.NoError(t, err)
	})
}

func TestTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("donor scanned then collector completed", func(t *testing.T) {
		svc, _, _ := setup(t)
		pair, err := svc.IssuePair(ctx, testListing(), testRequest())
		require.NoError(t, err)

		donor, err := svc.Transition(ctx, pair.TransactionID, models.QRTypeDonor, models.QRStatusScanned, "shop-1")
		require.NoError(t, err)
		assert.Equal(t, models.QRStatusScanned, donor.Status)
		assert.Equal(t, "shop-1", donor.ScannedByShopID)

		collector, err := svc.Transition(ctx, pair.TransactionID, models.QRTypeCollector, models.QRStatusCompleted, "shop-1")
		require.NoError(t, err)
		assert.Equal(t, models.QRStatusCompleted, collector.Status)
		require.NotNil(t, collector.CompletedAt)
	})

	t.Run("second scan is already used", func(t *testing.T) {
		svc, _, _ := setup(t)
		pair, err := svc.IssuePair(ctx, testListing(), testRequest())
		require.NoError(t, err)

		_, err = svc.Transition(ctx, pair.TransactionID, models.QRTypeDonor, models.QRStatusScanned, "shop-1")
		require.NoError(t, err)
		_, err = svc.Transition(ctx, pair.TransactionID, models.QRTypeDonor, models.QRStatusScanned, "shop-1")
		assert.ErrorIs(t, err, domainErrors.ErrQRAlreadyUsed)
	})

	t.Run("expired", func(t *testing.T) {
		svc, _, clk := setup(t)
		pair, err := svc.IssuePair(ctx, testListing(), testRequest())
		require.NoError(t, err)

		clk.Advance(DefaultPairTTL + time.Second)
		_, err = svc.Transition(ctx, pair.TransactionID, models.QRTypeCollector, models.QRStatusCompleted, "shop-1")
		assert.ErrorIs(t, err, domainErrors.ErrQRExpired)
	})

	t.Run("illegal target", func(t *testing.T) {
		svc, _, _ := setup(t)
		pair, err := svc.IssuePair(ctx, testListing(), testRequest())
		require.NoError(t, err)

		_, err = svc.Transition(ctx, pair.TransactionID, models.QRTypeDonor, models.QRStatusCompleted, "shop-1")
		assert.ErrorIs(t, err, domainErrors.ErrIllegalTransition)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, err := svc.Transition(ctx, "nope", models.QRTypeDonor, models.QRStatusScanned, "shop-1")
		assert.ErrorIs(t, err, domainErrors.ErrQRNotFound)
	})
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()

	scanDonor := func(t *testing.T, svc Service, pair *Pair) {
		_, err := svc.Transition(ctx, pair.TransactionID, models.QRTypeDonor, models.QRStatusScanned, "shop-1")
		require.NoError(t, err)
	}
	completeCollector := func(t *testing.T, svc Service, pair *Pair) {
		scanDonor(t, svc, pair)
		_, err := svc.Transition(ctx, pair.TransactionID, models.QRTypeCollector, models.QRStatusCompleted, "shop-1")
		require.NoError(t, err)
	}

	tests := []struct {
		name    string
		prepare func(t *testing.T, svc Service, pair *Pair)
		role    models.QRType
		past    time.Duration
		wantErr error
	}{
		{name: "active donor at expiry", role: models.QRTypeDonor},
		{name: "active donor past expiry", role: models.QRTypeDonor, past: time.Nanosecond, wantErr: domainErrors.ErrQRExpired},
		{name: "scanned donor at expiry", prepare: scanDonor, role: models.QRTypeDonor, wantErr: domainErrors.ErrQRAlreadyUsed},
		{name: "scanned donor past expiry", prepare: scanDonor, role: models.QRTypeDonor, past: time.Nanosecond, wantErr: domainErrors.ErrQRExpired},
		{name: "completed collector at expiry", prepare: completeCollector, role: models.QRTypeCollector, wantErr: domainErrors.ErrQRAlreadyUsed},
		{name: "completed collector past expiry", prepare: completeCollector, role: models.QRTypeCollector, past: time.Nanosecond, wantErr: domainErrors.ErrQRExpired},
		{name: "completed collector long past expiry", prepare: completeCollector, role: models.QRTypeCollector, past: time.Hour, wantErr: domainErrors.ErrQRExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, clk := setup(t)
			pair, err := svc.IssuePair(ctx, testListing(), testRequest())
			require.NoError(t, err)
			if tt.prepare != nil {
				tt.prepare(t, svc, pair)
			}
			code := pair.Donor
			if tt.role == models.QRTypeCollector {
				code = pair.Collector
			}
			raw := payloadFor(t, svc, code)

			clk.Advance(DefaultPairTTL + tt.past)
			_, err = svc.Validate(ctx, raw, tt.role)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTransition_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		past    time.Duration
		wantErr error
	}{
		{name: "at expiry", past: 0},
		{name: "one nanosecond past expiry", past: time.Nanosecond, wantErr: domainErrors.ErrQRExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, clk := setup(t)
			pair, err := svc.IssuePair(ctx, testListing(), testRequest())
			require.NoError(t, err)

			clk.Advance(DefaultPairTTL + tt.past)
			code, err := svc.Transition(ctx, pair.TransactionID, models.QRTypeDonor, models.QRStatusScanned, "shop-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.QRStatusScanned, code.Status)
		})
	}
}

func TestSetDropOffLocation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	pair, err := svc.IssuePair(ctx, testListing(), testRequest())
	require.NoError(t, err)

	require.NoError(t, svc.SetDropOffLocation(ctx, pair.TransactionID, "12 Green St"))

	codes, err := svc.GetByTransaction(ctx, pair.TransactionID)
	require.NoError(t, err)
	for _, c := range codes {
		assert.Equal(t, "12 Green St", c.DropOffLocation)
	}

	_, err = svc.GetByTransaction(ctx, "nope")
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "empty", raw: "  ", wantErr: true},
		{name: "missing transaction", raw: `{"type":"donor","itemId":"i"}`, wantErr: true},
		{name: "bad type", raw: `{"transactionId":"t","type":"shop","itemId":"i"}`, wantErr: true},
		{name: "missing item", raw: `{"transactionId":"t","type":"collector"}`, wantErr: true},
		{name: "ok", raw: `{"transactionId":"t","type":"collector","itemId":"i","metadata":{"category":"books"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodePayload(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domainErrors.ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "books", p.Metadata.Category)
		})
	}
}
