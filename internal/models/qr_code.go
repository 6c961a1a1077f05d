package models

import "time"

// QRType names the party holding a code.
type QRType string

const (
	QRTypeDonor     QRType = "donor"
	QRTypeCollector QRType = "collector"
)

func (t QRType) String() string {
	return string(t)
}

func (t QRType) Valid() bool {
	return t == QRTypeDonor || t == QRTypeCollector
}

type QRStatus string

const (
	QRStatusActive    QRStatus = "active"
	QRStatusScanned   QRStatus = "scanned"
	QRStatusExpired   QRStatus = "expired"
	QRStatusCompleted QRStatus = "completed"
)

func (s QRStatus) String() string {
	return string(s)
}

// QRMetadata is copied from the listing when a code is minted.
type QRMetadata struct {
	Category   string    `json:"category"`
	Condition  string    `json:"condition"`
	CO2Impact  float64   `json:"co2Impact"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	ActionType string    `json:"actionType"`
}

// QRCode is one half of a hand-off. Codes are unique per
// (TransactionID, Type) and are never deleted.
type QRCode struct {
	ID              string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TransactionID   string     `gorm:"not null;uniqueIndex:idx_qr_tx_type" json:"transactionId"`
	Type            QRType     `gorm:"not null;uniqueIndex:idx_qr_tx_type" json:"type"`
	ClaimRequestID  *string    `gorm:"index" json:"claimRequestId,omitempty"`
	ItemID          string     `gorm:"not null;index" json:"itemId"`
	ItemTitle       string     `json:"itemTitle"`
	UserID          string     `gorm:"not null;index" json:"userId"`
	UserName        string     `json:"userName"`
	Metadata        QRMetadata `gorm:"serializer:json;type:jsonb" json:"metadata"`
	ExpiresAt       time.Time  `gorm:"not null;index" json:"expiresAt"`
	DropOffLocation string     `json:"dropOffLocation,omitempty"`
	Status          QRStatus   `gorm:"not null;default:'active'" json:"status"`
	ScannedAt       *time.Time `json:"scannedAt,omitempty"`
	ScannedByShopID string     `json:"scannedByShopId,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// IsExpired reports whether the code is past its expiry at now.
func (q *QRCode) IsExpired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
