// Package errors holds the domain error taxonomy shared by services and
// handlers. Values are compared by Code, so a specific error matches the
// bare sentinel of its kind.
package errors

import stderrors "errors"

// Error codes.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeQRExpired         = "QR_EXPIRED"
	CodeQRAlreadyUsed     = "QR_ALREADY_USED"
	CodeDuplicateClaim    = "DUPLICATE_CLAIM"
	CodeInvalidPayload    = "INVALID_PAYLOAD"
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodeInvalidAmount     = "INVALID_AMOUNT"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code. A target with an empty Message matches every error
// of that code; otherwise the messages must agree too.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// WithMessage returns a copy of e carrying msg.
func (e *DomainError) WithMessage(msg string) *DomainError {
	return &DomainError{Code: e.Code, Message: msg}
}

// Code extracts the domain code from err, or "" when err is not a DomainError.
func Code(err error) string {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Kind sentinels, matching any message.
var (
	ErrNotFound          = &DomainError{Code: CodeNotFound}
	ErrIllegalTransition = &DomainError{Code: CodeIllegalTransition}
	ErrInvalidPayload    = &DomainError{Code: CodeInvalidPayload}
)
