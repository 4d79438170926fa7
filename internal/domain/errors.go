package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeUnreadableDocument  = "UNREADABLE_DOCUMENT"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderConfig      = "PROVIDER_CONFIG"
	ErrCodeProviderError       = "PROVIDER_ERROR"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyMessage        = NewDomainError(ErrCodeValidation, "message is required")
	ErrInvalidSessionID    = NewDomainError(ErrCodeValidation, "invalid session id")
	ErrInvalidMessageRole  = NewDomainError(ErrCodeValidation, "invalid message role")
	ErrInvalidChunkStatus  = NewDomainError(ErrCodeValidation, "invalid chunk status")
	ErrNoExtractableText   = NewDomainError(ErrCodeValidation, "document has no extractable text")
	ErrUnsupportedDocument = NewDomainError(ErrCodeValidation, "only PDF or plain text documents are supported")
	ErrEmptyDocument       = NewDomainError(ErrCodeValidation, "document is empty")
)

// Not found errors
var (
	ErrSessionNotFound = NewDomainError(ErrCodeNotFound, "session not found")
)

// Content errors
var (
	ErrUnreadableDocument = NewDomainError(ErrCodeUnreadableDocument, "document could not be read")
	ErrEncryptedDocument  = NewDomainError(ErrCodeUnreadableDocument, "encrypted PDF is not supported")
)

// Provider errors. Unavailable is transient and recoverable; config and
// provider errors are fatal for the operation that hit them.
var (
	ErrProviderUnavailable = NewDomainError(ErrCodeProviderUnavailable, "provider temporarily unavailable")
	ErrProviderConfig      = NewDomainError(ErrCodeProviderConfig, "provider is not configured")
	ErrProviderFailed      = NewDomainError(ErrCodeProviderError, "provider request failed")
	ErrWrongDimensions     = NewDomainError(ErrCodeProviderError, "embedding has unexpected dimensionality")
)
