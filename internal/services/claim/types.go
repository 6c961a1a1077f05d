package claim

import (
	"time"

	"handoff/internal/models"
	"handoff/internal/services/qr"
)

// DefaultRewardPoints is credited to the donor of a completed exchange.
const DefaultRewardPoints = 25

type Config struct {
	RewardPoints int
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

type SubmitInput struct {
	ItemID        string `json:"itemId" validate:"required,max=64"`
	ItemTitle     string `json:"itemTitle" validate:"max=200"`
	DonorID       string `json:"donorId" validate:"required,max=64"`
	DonorName     string `json:"donorName" validate:"max=120"`
	CollectorID   string `json:"collectorId" validate:"required,max=64"`
	CollectorName string `json:"collectorName" validate:"max=120"`
	Note          string `json:"note,omitempty" validate:"max=500"`
}

// SubmitResult carries Existing=true when an open request for the same
// item and collector was returned instead of creating a new one.
type SubmitResult struct {
	Request  models.ClaimRequest `json:"request"`
	Existing bool                `json:"existing"`
}

// ApproveResult is the approved request with its freshly minted codes.
// Pair is nil when the request had already been approved.
type ApproveResult struct {
	Request     models.ClaimRequest `json:"request"`
	Pair        *qr.Pair            `json:"qrCodes,omitempty"`
	DeclinedIDs []string            `json:"declinedRequestIds"`
	ChatID      string              `json:"chatId"`
}

type CompleteResult struct {
	Request          models.ClaimRequest `json:"request"`
	RewardPoints     int                 `json:"rewardPoints"`
	AlreadyCompleted bool                `json:"alreadyCompleted"`
}
