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

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes used across the ledger
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeNothingToReturn    = "NOTHING_TO_RETURN"
	CodeNotFound           = "NOT_FOUND"
	CodeTransactionFailure = "TRANSACTION_FAILURE"
)

// Common domain errors
var (
	ErrValidation         = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInsufficientStock  = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrNothingToReturn    = NewDomainError(CodeNothingToReturn, "No batches selected for return")
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
	ErrTransactionFailure = NewDomainError(CodeTransactionFailure, "Transaction could not be committed")
)

// Is reports whether target carries the same error code, so errors.Is
// matches repository and service errors even when the message was
// specialized at the call site.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
