package claim

import (
	"fmt"

	domainErrors "handoff/internal/errors"
	"handoff/internal/models"
)

var (
	ErrItemAlreadyClaimed = domainErrors.ErrIllegalTransition.WithMessage("another request for this item has already been approved")
	ErrItemCollected      = domainErrors.ErrIllegalTransition.WithMessage("item has already been collected")
	ErrNotOwner           = domainErrors.ErrInvalidPayload.WithMessage("donor does not own this item")
	ErrConcurrentUpdate   = domainErrors.ErrIllegalTransition.WithMessage("claim request changed concurrently")
)

func errCannot(action string, status models.ClaimStatus) error {
	return domainErrors.ErrIllegalTransition.WithMessage(fmt.Sprintf("cannot %s a %s claim request", action, status))
}
