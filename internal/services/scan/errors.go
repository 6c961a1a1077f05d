package scan

import domainErrors "handoff/internal/errors"

var (
	ErrDropoffNotAllowed = domainErrors.ErrIllegalTransition.WithMessage("item is not awaiting drop-off")
	ErrPickupNotAllowed  = domainErrors.ErrIllegalTransition.WithMessage("item is not awaiting collection")
	ErrNoActiveClaim     = domainErrors.ErrIllegalTransition.WithMessage("item has no approved claim")
	ErrClaimMismatch     = domainErrors.ErrIllegalTransition.WithMessage("claim does not match the item's approved claim")
	ErrWrongItem         = domainErrors.ErrInvalidQR.WithMessage("QR code does not belong to this item")
	ErrWrongClaim        = domainErrors.ErrInvalidQR.WithMessage("QR code belongs to another claim")
)
