package scan

import (
	"time"

	"handoff/internal/models"
)

// ActionAccept is the only drop-off action that changes state.
const ActionAccept = "accept"

type Config struct {
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

type DropoffRequest struct {
	ShopID string `json:"shop_id"`
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

type ClaimOutRequest struct {
	ShopID  string `json:"shop_id"`
	ClaimID string `json:"claim_id,omitempty"`
}

type Result struct {
	ScanResult   models.ScanEvent     `json:"scan_result"`
	Listing      *models.Listing      `json:"listing,omitempty"`
	QRCode       *models.QRCode       `json:"qr_code,omitempty"`
	Claim        *models.ClaimRequest `json:"claim,omitempty"`
	RewardPoints int                  `json:"reward_points,omitempty"`
}

type ItemView struct {
	ItemID       string               `json:"item_id"`
	Status       models.ListingStatus `json:"status"`
	PickupStatus string               `json:"pickup_status"`
	Claim        *models.ClaimRequest `json:"claim,omitempty"`
	ScanState    State                `json:"scan_state"`
	ScanEvents   []models.ScanEvent   `json:"scan_events"`
}

type Resolution struct {
	ItemID        string               `json:"item_id"`
	TransactionID string               `json:"transaction_id"`
	QRType        models.QRType        `json:"qr_type"`
	Listing       *models.Listing      `json:"listing"`
	Claim         *models.ClaimRequest `json:"claim,omitempty"`
	ScanState     State                `json:"scan_state"`
	Action        ActionMode           `json:"action"`
	// Allowed is false when the state forbids the action or the code is
	// of the wrong holder for it.
	Allowed bool `json:"allowed"`
}
