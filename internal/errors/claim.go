package errors

var (
	ErrClaimNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "claim request not found",
	}
	ErrDuplicateClaim = &DomainError{
		Code:    CodeDuplicateClaim,
		Message: "a claim for this item is already open",
	}
	ErrListingNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "listing not found",
	}
	ErrShopNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "partner shop not found",
	}
)
