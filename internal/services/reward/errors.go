package reward

import domainErrors "handoff/internal/errors"

var ErrAlreadyCredited = domainErrors.ErrIllegalTransition.WithMessage("claim request has already been credited")
