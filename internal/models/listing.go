package models

import "time"

type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusCollected ListingStatus = "collected"
)

// Pickup statuses tracked while an item moves through a partner shop.
const (
	PickupStatusPendingDropoff     = "pending_dropoff"
	PickupStatusActive             = "active"
	PickupStatusAwaitingCollection = "awaiting_collection"
	PickupStatusCollected          = "collected"
)

// PickupOptionDonate marks listings handed off through a partner shop.
const PickupOptionDonate = "donate"

type Listing struct {
	ID            string        `gorm:"primaryKey;type:varchar(64)" json:"id" validate:"required,max=64"`
	Title         string        `gorm:"not null" json:"title" validate:"required,max=200"`
	Description   string        `json:"description,omitempty" validate:"max=2000"`
	ImageURL      string        `json:"image,omitempty"`
	DonorID       string        `gorm:"not null;index" json:"donorId" validate:"required,max=64"`
	DonorName     string        `json:"donorName" validate:"max=120"`
	Category      string        `json:"category"`
	Condition     string        `json:"condition"`
	CO2Impact     float64       `json:"co2Impact" validate:"gte=0"`
	ActionType    string        `json:"actionType"`
	PickupOption  string        `json:"pickupOption"`
	PickupStatus  string        `json:"pickupStatus"`
	Status        ListingStatus `gorm:"not null;default:'available'" json:"status"`
	DropOffShopID *string       `json:"dropOffShopId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
