package qr

import (
	"encoding/json"
	"strings"

	domainErrors "handoff/internal/errors"
)

// DecodePayload parses a scanned payload.
func DecodePayload(raw string) (*Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domainErrors.ErrInvalidQR.WithMessage("QR code payload is empty")
	}

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, domainErrors.ErrInvalidQR
	}

	switch {
	case p.TransactionID == "":
		return nil, domainErrors.ErrInvalidQR.WithMessage("QR code payload has no transactionId")
	case !p.Type.Valid():
		return nil, domainErrors.ErrInvalidQR.WithMessage("QR code payload has an unknown type")
	case p.ItemID == "":
		return nil, domainErrors.ErrInvalidQR.WithMessage("QR code payload has no itemId")
	}
	return &p, nil
}

func encode(p *Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
