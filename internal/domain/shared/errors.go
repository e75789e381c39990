package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so wrapped
// errors built with NewDomainError match the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared by every bounded context
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeForbidden              = "FORBIDDEN"
	CodeInvalidState           = "INVALID_STATE"
	CodeAlreadyAgreed          = "ALREADY_AGREED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodePaymentGateway         = "PAYMENT_GATEWAY_ERROR"
	CodePaymentGatewayRejected = "PAYMENT_GATEWAY_REJECTED"
	CodeSignatureInvalid       = "SIGNATURE_INVALID"
	CodeInternal               = "INTERNAL_ERROR"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput           = NewDomainError(CodeValidation, "Invalid input provided")
	ErrForbidden              = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidState           = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConcurrentModification = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
	ErrSignatureInvalid       = NewDomainError(CodeSignatureInvalid, "Webhook signature is invalid")
)
