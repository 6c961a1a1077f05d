package models

import "time"

// RewardBalance is a donor's GreenPoints total.
type RewardBalance struct {
	DonorID   string    `gorm:"primaryKey;type:varchar(64)" json:"donorId"`
	Balance   int       `gorm:"not null;default:0" json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RewardEntry journals one credit. ClaimRequestID is unique so a request
// can be credited at most once.
type RewardEntry struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	DonorID        string    `gorm:"not null;index" json:"donorId"`
	ClaimRequestID string    `gorm:"not null;uniqueIndex" json:"claimRequestId"`
	Points         int       `gorm:"not null" json:"points"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CollectedItem marks an item whose exchange has completed.
type CollectedItem struct {
	ItemID         string    `gorm:"primaryKey;type:varchar(64)" json:"itemId"`
	Collected      bool      `gorm:"not null;default:false" json:"collected"`
	ClaimRequestID string    `json:"claimRequestId,omitempty"`
	ConfirmedAt    time.Time `json:"confirmedAt"`
}
