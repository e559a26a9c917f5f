package translate

import (
	"errors"
	"fmt"
)

// APIErrorCode identifies the category of a translation API failure
type APIErrorCode string

const (
	// ErrServiceUnavailable indicates the remote API could not be reached
	ErrServiceUnavailable APIErrorCode = "SERVICE_UNAVAILABLE"
	// ErrTranslationFailed indicates the API rejected or failed the translation
	ErrTranslationFailed APIErrorCode = "TRANSLATE_FAILED"
	// ErrDetectionFailed indicates language detection produced no usable result
	ErrDetectionFailed APIErrorCode = "DETECTION_FAILED"
	// ErrUnsupportedLanguage indicates a language code outside the supported set
	ErrUnsupportedLanguage APIErrorCode = "UNSUPPORTED_LANGUAGE"
)

// APIError represents an error from the translation API
type APIError struct {
	Code    APIErrorCode
	Message string
	Details string
	Cause   error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *APIError) Unwrap() error {
	return e.Cause
}

// NewAPIError creates a new APIError
func NewAPIError(code APIErrorCode, message string, cause error) *APIError {
	return &APIError{Code: code, Message: message, Cause: cause}
}

// NewAPIErrorWithDetails creates a new APIError with additional details
func NewAPIErrorWithDetails(code APIErrorCode, message, details string, cause error) *APIError {
	return &APIError{Code: code, Message: message, Details: details, Cause: cause}
}

// IsCode reports whether err is an *APIError carrying the given code
func IsCode(err error, code APIErrorCode) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == code
}
