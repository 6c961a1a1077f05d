package models

import "time"

type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "pending"
	ClaimStatusApproved  ClaimStatus = "approved"
	ClaimStatusDeclined  ClaimStatus = "declined"
	ClaimStatusCompleted ClaimStatus = "completed"
)

func (s ClaimStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition may leave s.
func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimStatusDeclined || s == ClaimStatusCompleted
}

// ClaimRequest is a collector's request for a listed item. At most one
// non-completed request exists per (ItemID, CollectorID).
type ClaimRequest struct {
	ID            string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ItemID        string      `gorm:"not null;index;index:idx_claim_open_pair,unique,where:status <> 'completed'" json:"itemId"`
	ItemTitle     string      `gorm:"not null" json:"itemTitle"`
	DonorID       string      `gorm:"not null;index" json:"donorId"`
	DonorName     string      `json:"donorName"`
	CollectorID   string      `gorm:"not null;index;index:idx_claim_open_pair,unique,where:status <> 'completed'" json:"collectorId"`
	CollectorName string      `json:"collectorName"`
	Note          string      `json:"note,omitempty"`
	Status        ClaimStatus `gorm:"not null;default:'pending';index" json:"status"`
	DecisionAt    *time.Time  `json:"decisionAt,omitempty"`
	CompletedAt   *time.Time  `json:"completedAt,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
