package dto

import (
	"net/http"

	"github.com/printmarket/backend/internal/domain/shared"
)

// Domain error codes, surfaced unchanged in the response body
const (
	ErrCodeValidation             = shared.CodeValidation
	ErrCodeNotFound               = shared.CodeNotFound
	ErrCodeForbidden              = shared.CodeForbidden
	ErrCodeInvalidState           = shared.CodeInvalidState
	ErrCodeAlreadyAgreed          = shared.CodeAlreadyAgreed
	ErrCodeConcurrentModification = shared.CodeConcurrentModification
	ErrCodePaymentGateway         = shared.CodePaymentGateway
	ErrCodePaymentGatewayRejected = shared.CodePaymentGatewayRejected
	ErrCodeSignatureInvalid       = shared.CodeSignatureInvalid
	ErrCodeInternal               = shared.CodeInternal
)

// Transport error codes raised by handlers and middleware
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:             http.StatusBadRequest,
	ErrCodeForbidden:              http.StatusForbidden,
	ErrCodeNotFound:               http.StatusNotFound,
	ErrCodeInvalidState:           http.StatusBadRequest,
	ErrCodeAlreadyAgreed:          http.StatusBadRequest,
	ErrCodePaymentGateway:         http.StatusBadGateway,
	ErrCodePaymentGatewayRejected: http.StatusBadRequest,
	ErrCodeSignatureInvalid:       http.StatusUnauthorized,
	ErrCodeConcurrentModification: http.StatusConflict,
	ErrCodeInternal:               http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
