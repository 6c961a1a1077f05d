package errors

var (
	ErrQRNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "QR code not found",
	}
	ErrQRExpired = &DomainError{
		Code:    CodeQRExpired,
		Message: "QR code has expired",
	}
	ErrQRAlreadyUsed = &DomainError{
		Code:    CodeQRAlreadyUsed,
		Message: "QR code has already been used",
	}
	ErrInvalidQR = &DomainError{
		Code:    CodeInvalidPayload,
		Message: "invalid QR code payload",
	}
)
