package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All handlers MUST use these constants instead of hardcoded strings.
const (
	// Validation (400)
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidField ErrorCode = "validation_invalid_field"
	ErrCodeValidationInvalidSlug  ErrorCode = "validation_invalid_slug"
	ErrCodeValidationInvalidEmail ErrorCode = "validation_invalid_email"
	ErrCodeValidationPayload      ErrorCode = "validation_invalid_payload"

	// Auth (401)
	ErrCodeAuthSessionMissing   ErrorCode = "auth_session_missing"
	ErrCodeAuthSessionExpired   ErrorCode = "auth_session_expired"
	ErrCodeAuthSessionInvalid   ErrorCode = "auth_session_invalid"
	ErrCodeAuthIdentityMismatch ErrorCode = "auth_identity_mismatch"

	// Webhook security (401)
	ErrCodeWebhookSignatureInvalid ErrorCode = "webhook_signature_invalid"

	// Not Found (404)
	ErrCodeNotFoundProfile ErrorCode = "not_found_profile"
	ErrCodeNotFoundKit     ErrorCode = "not_found_kit"
	ErrCodeNotFoundCollab  ErrorCode = "not_found_collab_request"

	// Conflict (409)
	ErrCodeConflictCollabClosed ErrorCode = "conflict_collab_request_closed"

	// Server configuration (500). Never user-recoverable; logged and alerted.
	ErrCodeConfigMissing ErrorCode = "config_missing"

	// Billing provider (502)
	ErrCodeProviderRejected        ErrorCode = "provider_rejected"
	ErrCodeProviderInvalidResponse ErrorCode = "provider_invalid_response"
	ErrCodeProviderUnavailable     ErrorCode = "provider_unavailable"
	ErrCodeProviderRateLimited     ErrorCode = "provider_rate_limited"

	// Internal (500)
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Used by the API layer to translate AppErrors into HTTP responses.
// Returns 500 for unrecognized error codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest // 400
	case strings.HasPrefix(s, "auth_"), s == string(ErrCodeWebhookSignatureInvalid):
		return http.StatusUnauthorized // 401
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound // 404
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict // 409
	case strings.HasPrefix(s, "provider_"):
		return http.StatusBadGateway // 502
	case s == string(ErrCodeConfigMissing):
		return http.StatusInternalServerError // 500
	case strings.HasPrefix(s, "internal_"):
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// AppError is the standard application error type used throughout the platform.
// All domain and handler errors should be expressed as AppError to enable
// consistent error formatting, HTTP status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with the provided details merged in.
// This is useful for adding context without mutating the original error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error. This is the standard constructor for domain errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}
