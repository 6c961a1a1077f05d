package models

import "time"

// PartnerShop is an entry of the shop directory.
type PartnerShop struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id" validate:"required,max=64"`
	Name      string    `gorm:"not null" json:"name" validate:"required,max=120"`
	Address   string    `json:"address" validate:"required,max=300"`
	CreatedAt time.Time `json:"createdAt"`
}

type ScanAction string

const (
	ScanActionDropoff ScanAction = "dropoff"
	ScanActionPickup  ScanAction = "pickup"
)

type ScanResult string

const (
	ScanResultAccepted ScanResult = "accepted"
	ScanResultReleased ScanResult = "released"
	ScanResultRejected ScanResult = "rejected"
)

// ScanEvent records every partner scan attempt, successful or not.
type ScanEvent struct {
	ID            string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ItemID        string     `gorm:"not null;index" json:"itemId"`
	ShopID        string     `gorm:"index" json:"shopId"`
	TransactionID string     `json:"transactionId,omitempty"`
	QRType        QRType     `json:"qrType,omitempty"`
	Action        ScanAction `gorm:"not null" json:"action"`
	Result        ScanResult `gorm:"not null" json:"result"`
	Reason        string     `json:"reason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
