package qr

import (
	"time"

	"handoff/internal/models"
)

type Config struct {
	PairTTL       time.Duration
	StandaloneTTL time.Duration
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// Default lifetimes.
const (
	DefaultPairTTL       = 48 * time.Hour
	DefaultStandaloneTTL = 24 * time.Hour
)

// Pair is the donor and collector codes minted for one approved request.
type Pair struct {
	TransactionID string         `json:"transactionId"`
	Donor         *models.QRCode `json:"donorQR"`
	Collector     *models.QRCode `json:"collectorQR"`
}

// Payload is the JSON document encoded in a QR image.
type Payload struct {
	TransactionID   string            `json:"transactionId"`
	Type            models.QRType     `json:"type"`
	ItemID          string            `json:"itemId"`
	ItemTitle       string            `json:"itemTitle"`
	ItemDescription string            `json:"itemDescription,omitempty"`
	ItemImage       string            `json:"itemImage,omitempty"`
	UserID          string            `json:"userId"`
	UserName        string            `json:"userName"`
	Metadata        models.QRMetadata `json:"metadata"`
	DropOffLocation string            `json:"dropOffLocation,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

type transition struct {
	from []models.QRStatus
	to   models.QRStatus
}

// transitions lists the single legal move of each holder's code.
var transitions = map[models.QRType]transition{
	models.QRTypeDonor: {
		from: []models.QRStatus{models.QRStatusActive},
		to:   models.QRStatusScanned,
	},
	models.QRTypeCollector: {
		from: []models.QRStatus{models.QRStatusActive, models.QRStatusScanned},
		to:   models.QRStatusCompleted,
	},
}

func (t transition) accepts(s models.QRStatus) bool {
	for _, f := range t.from {
		if f == s {
			return true
		}
	}
	return false
}
