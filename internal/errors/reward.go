package errors

var (
	ErrInvalidAmount = &DomainError{
		Code:    CodeInvalidAmount,
		Message: "reward points must not be negative",
	}
)
