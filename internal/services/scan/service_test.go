package scan

import (
	"context"
	"sync"
	"testing"
	"time"

	domainErrors "handoff/internal/errors"
	"handoff/internal/events"
	"handoff/internal/models"
	"handoff/internal/repositories/memory"
	"handoff/internal/services/claim"
	"handoff/internal/services/qr"
	"handoff/internal/services/reward"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type env struct {
	scan    Service
	claims  claim.Service
	qr      qr.Service
	rewards reward.Service
	store   *memory.Store
	clock   *clock
	topics  []events.Topic
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	e := &env{store: memory.New(), clock: &clock{t: time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)}}

	require.NoError(t, e.store.Listings().Create(ctx, &models.Listing{
		ID:           "I1",
		Title:        "Road bike",
		DonorID:      "donor-1",
		DonorName:    "Dana",
		Category:     "sports",
		Condition:    "used",
		PickupOption: "donate",
		PickupStatus: models.PickupStatusPendingDropoff,
		Status:       models.ListingStatusAvailable,
	}))
	require.NoError(t, e.store.Shops().Create(ctx, &models.PartnerShop{ID: "shop-1", Name: "Green Corner", Address: "5 Market Rd"}))

	bus := events.NewBus(nil)
	bus.SubscribeAll(func(_ context.Context, ev events.Event) { e.topics = append(e.topics, ev.Topic) })

	e.qr = qr.NewService(e.store, qr.Config{Now: e.clock.Now}, nil, nil)
	e.rewards = reward.NewService(e.store, nil, e.clock.Now, nil)
	e.claims = claim.NewService(e.store, e.qr, e.rewards, bus, claim.Config{Now: e.clock.Now}, nil, nil)
	e.scan = NewService(e.store, e.qr, e.claims, bus, Config{Now: e.clock.Now}, nil, nil)
	return e
}

// approved submits and approves a claim on I1, returning it with its codes.
func (e *env) approved(t *testing.T) (*claim.ApproveResult, string, string) {
	t.Helper()
	ctx := context.Background()
	sub, err := e.claims.Submit(ctx, claim.SubmitInput{ItemID: "I1", DonorID: "donor-1", CollectorID: "collector-1"})
	require.NoError(t, err)
	res, err := e.claims.Approve(ctx, sub.Request.ID)
	require.NoError(t, err)

	donor, err := e.qr.EncodePayload(ctx, res.Pair.Donor)
	require.NoError(t, err)
	collector, err := e.qr.EncodePayload(ctx, res.Pair.Collector)
	require.NoError(t, err)
	return res, donor, collector
}

func (e *env) listing(t *testing.T) *models.Listing {
	t.Helper()
	l, err := e.store.Listings().GetByID(context.Background(), "I1")
	require.NoError(t, err)
	return l
}

func TestExchange_EndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	approvedAt := e.clock.Now()

	res, donorPayload, collectorPayload := e.approved(t)

	codes, err := e.qr.GetByTransaction(ctx, res.Pair.TransactionID)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	for _, c := range codes {
		assert.Equal(t, models.QRStatusActive, c.Status)
		assert.Equal(t, approvedAt.Add(48*time.Hour), c.ExpiresAt)
	}

	e.clock.Advance(2 * time.Hour)
	in, err := e.scan.DropoffIn(ctx, "I1", DropoffRequest{ShopID: "shop-1", Action: "accept"}, donorPayload)
	require.NoError(t, err)
	assert.Equal(t, models.ScanResultAccepted, in.ScanResult.Result)
	assert.Equal(t, models.QRStatusScanned, in.QRCode.Status)
	assert.Equal(t, models.PickupStatusAwaitingCollection, in.Listing.PickupStatus)
	require.NotNil(t, in.Listing.DropOffShopID)
	assert.Equal(t, "shop-1", *in.Listing.DropOffShopID)

	collectorCode, err := e.store.QRCodes().GetByTransaction(ctx, res.Pair.TransactionID, models.QRTypeCollector)
	require.NoError(t, err)
	assert.Equal(t, "5 Market Rd", collectorCode.DropOffLocation)

	e.clock.Advance(24 * time.Hour)
	out, err := e.scan.ClaimOut(ctx, "I1", ClaimOutRequest{ShopID: "shop-1", ClaimID: res.Request.ID}, collectorPayload)
	require.NoError(t, err)
	assert.Equal(t, models.ScanResultReleased, out.ScanResult.Result)
	assert.Equal(t, models.ClaimStatusCompleted, out.Claim.Status)
	assert.Equal(t, 25, out.RewardPoints)
	assert.Equal(t, models.ListingStatusCollected, out.Listing.Status)

	balance, err := e.rewards.Balance(ctx, "donor-1")
	require.NoError(t, err)
	assert.Equal(t, 25, balance)
	collected, err := e.rewards.IsCollected(ctx, "I1")
	require.NoError(t, err)
	assert.True(t, collected.Collected)

	assert.Equal(t, []events.Topic{
		events.TopicClaimRequested,
		events.TopicClaimApproved,
		events.TopicPartnerReady,
		events.TopicCollectionConfirmed,
	}, e.topics)

	view, err := e.scan.ViewItem(ctx, "I1")
	require.NoError(t, err)
	require.Len(t, view.ScanEvents, 2)
	assert.Equal(t, models.ScanActionDropoff, view.ScanEvents[0].Action)
	assert.Equal(t, models.ScanActionPickup, view.ScanEvents[1].Action)
	assert.True(t, view.ScanState.Indeterminate)
}

func TestDropoffIn_DoubleScanIsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, donorPayload, _ := e.approved(t)

	_, err := e.scan.DropoffIn(ctx, "I1", DropoffRequest{ShopID: "shop-1", Action: "accept"}, donorPayload)
	require.NoError(t, err)

	_, err = e.scan.DropoffIn(ctx, "I1", DropoffRequest{ShopID: "shop-1", Action: "accept"}, donorPayload)
	assert.ErrorIs(t, err, domainErrors.ErrIllegalTransition, "the listing is no longer awaiting drop-off")

	view, err := e.scan.ViewItem(ctx, "I1")
	require.NoError(t, err)
	require.Len(t, view.ScanEvents, 2)
	assert.Equal(t, models.ScanResultRejected, view.ScanEvents[1].Result)
}

func TestDropoffIn_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown shop", func(t *testing.T) {
		e := newEnv(t)
		_, donorPayload, _ := e.approved(t)
		_, err := e.scan.DropoffIn(ctx, "I1", DropoffRequest{ShopID: "nope", Action: "accept"}, donorPayload)
		assert.ErrorIs(t, err, domainErrors.ErrShopNotFound)
	})

	t.Run("collector code at drop-off", func(t *testing.T) {
		e := newEnv(t)
		_, _, collectorPayload := e.approved(t)
		_, err := e.scan.DropoffIn(ctx, "I1", DropoffRequest{ShopID: "shop-1", Action: "accept"}, collectorPayload)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidPayload)
		assert.Equal(t, models.PickupStatusPendingDropoff, e.listing(t).PickupStatus)
	})

	t.Run("expired code", func(t *testing.T) {
		e := newEnv(t)
		_, donorPayload, _ := e.approved(t)
		e.clock.Advance(49 * time.Hour)
		_, err := e.scan.DropoffIn(ctx, "I1", DropoffRequest{ShopID: "shop-1", Action: "accept"}, donorPayload)
		assert.ErrorIs(t, err, domainErrors.ErrQRExpired)
		assert.Equal(t, models.PickupStatusPendingDropoff, e.listing(t).PickupStatus)
	})

	t.Run("shop refuses the item", func(t *testing.T) {
		e := newEnv(t)
		res, donorPayload, _ := e.approved(t)

		out, err := e.scan.DropoffIn(ctx, "I1", DropoffRequest{ShopID: "shop-1", Action: "reject", Reason: "damaged"}, donorPayload)
		require.NoError(t, err)
		assert.Equal(t, models.ScanResultRejected, out.ScanResult.Result)
		assert.Equal(t, "damaged", out.ScanResult.Reason)

		code, err := e.store.QRCodes().GetByTransaction(ctx, res.Pair.TransactionID, models.QRTypeDonor)
		require.NoError(t, err)
		assert.Equal(t, models.QRStatusActive, code.Status)
		assert.Equal(t, models.PickupStatusPendingDropoff, e.listing(t).PickupStatus)
	})
}

func TestClaimOut_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("before drop-off", func(t *testing.T) {
		e := newEnv(t)
		_, _, collectorPayload := e.approved(t)
		_, err := e.scan.ClaimOut(ctx, "I1", ClaimOutRequest{ShopID: "shop-1"}, collectorPayload)
		assert.ErrorIs(t, err, ErrPickupNotAllowed)
	})

	t.Run("no claim", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.scan.ClaimOut(ctx, "I1", ClaimOutRequest{ShopID: "shop-1"}, `{"transactionId":"t","type":"collector","itemId":"I1"}`)
		assert.ErrorIs(t, err, ErrNoActiveClaim)
	})

	t.Run("wrong claim id", func(t *testing.T) {
		e := newEnv(t)
		_, donorPayload, collectorPayload := e.approved(t)
		_, err := e.scan.DropoffIn(ctx, "I1", DropoffRequest{ShopID: "shop-1", Action: "accept"}, donorPayload)
		require.NoError(t, err)

		_, err = e.scan.ClaimOut(ctx, "I1", ClaimOutRequest{ShopID: "shop-1", ClaimID: "other"}, collectorPayload)
		assert.ErrorIs(t, err, ErrClaimMismatch)
	})

	t.Run("second release", func(t *testing.T) {
		e := newEnv(t)
		_, donorPayload, collectorPayload := e.approved(t)
		_, err := e.scan.DropoffIn(ctx, "I1", DropoffRequest{ShopID: "shop-1", Action: "accept"}, donorPayload)
		require.NoError(t, err)
		_, err = e.scan.ClaimOut(ctx, "I1", ClaimOutRequest{ShopID: "shop-1"}, collectorPayload)
		require.NoError(t, err)

		_, err = e.scan.ClaimOut(ctx, "I1", ClaimOutRequest{ShopID: "shop-1"}, collectorPayload)
		assert.ErrorIs(t, err, domainErrors.ErrIllegalTransition)

		balance, err := e.rewards.Balance(ctx, "donor-1")
		require.NoError(t, err)
		assert.Equal(t, 25, balance)
	})
}

func TestResolve(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, donorPayload, collectorPayload := e.approved(t)

	r, err := e.scan.Resolve(ctx, donorPayload, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, ModeDropoff, r.Action)
	assert.True(t, r.Allowed)
	require.NotNil(t, r.Claim)

	r, err = e.scan.Resolve(ctx, collectorPayload, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, ModeDropoff, r.Action)
	assert.False(t, r.Allowed, "collector code cannot drop off")

	_, err = e.scan.Resolve(ctx, donorPayload, "nope")
	assert.ErrorIs(t, err, domainErrors.ErrShopNotFound)

	_, err = e.scan.Resolve(ctx, "{", "")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidPayload)
}
