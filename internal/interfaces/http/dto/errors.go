package dto

import (
	"net/http"

	"github.com/cafepos/backend/internal/domain/shared"
)

// Codes raised by the HTTP layer itself. Domain operations carry their own
// codes (shared.Code*); these cover what never reaches a service.
const (
	// CodeUnauthorized is returned when the actor token is missing or invalid
	CodeUnauthorized = "UNAUTHORIZED"
	// CodeInternal is returned for errors with no domain classification
	CodeInternal = "INTERNAL_ERROR"
	// CodeRequestTooLarge is returned when the request body exceeds the limit
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// CodeRateLimited is returned when a client exceeds the request budget
	CodeRateLimited = "RATE_LIMIT_EXCEEDED"
	// CodeForbidden is returned when access to a resource is restricted
	CodeForbidden = "FORBIDDEN"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
//
// VALIDATION_ERROR is the caller's input being wrong (400) while
// INSUFFICIENT_STOCK and NOTHING_TO_RETURN are well-formed requests the
// ledger state cannot satisfy (422). TRANSACTION_FAILURE is the one
// retry-eligible class, so it maps to 503 rather than a 4xx.
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:         http.StatusBadRequest,
	shared.CodeNotFound:           http.StatusNotFound,
	shared.CodeInsufficientStock:  http.StatusUnprocessableEntity,
	shared.CodeNothingToReturn:    http.StatusUnprocessableEntity,
	shared.CodeTransactionFailure: http.StatusServiceUnavailable,

	CodeUnauthorized:    http.StatusUnauthorized,
	CodeInternal:        http.StatusInternalServerError,
	CodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	CodeRateLimited:     http.StatusTooManyRequests,
	CodeForbidden:       http.StatusForbidden,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes fall back to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether a response with this code is worth retrying.
// Only transient commit or lock contention qualifies; every other failure
// will repeat identically on retry.
func IsRetryable(code string) bool {
	return code == shared.CodeTransactionFailure
}
