package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestAppErrorImplementsError verifies that *AppError satisfies the error interface.
func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

// TestAppErrorErrorFormat verifies the Error() method produces "code: message".
func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeWebhookSignatureInvalid,
		Message: "signature mismatch",
	}

	expected := "webhook_signature_invalid: signature mismatch"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

// TestAppErrorUnwrap verifies the error chain support via Unwrap.
func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection reset")
	appErr := &AppError{
		Code:    ErrCodeInternalDB,
		Message: "failed to update profile",
		Err:     underlying,
	}

	if appErr.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", appErr.Unwrap(), underlying)
	}
}

// TestAppErrorErrorsAs verifies that errors.As can extract AppError from a chain.
func TestAppErrorErrorsAs(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeAuthSessionExpired,
		Message: "session has expired",
	}
	wrappedErr := fmt.Errorf("handler failed: %w", appErr)

	var target *AppError
	if !errors.As(wrappedErr, &target) {
		t.Fatal("errors.As should find AppError in the chain")
	}
	if target.Code != ErrCodeAuthSessionExpired {
		t.Errorf("extracted Code = %q, want %q", target.Code, ErrCodeAuthSessionExpired)
	}
}

// TestAppErrorErrorsIs verifies that errors.Is works through the AppError chain.
func TestAppErrorErrorsIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	appErr := &AppError{
		Code:    ErrCodeInternalUnexpected,
		Message: "unexpected failure",
		Err:     sentinel,
	}

	if !errors.Is(appErr, sentinel) {
		t.Error("errors.Is should find the sentinel error through Unwrap")
	}
}

// TestNewAppError verifies the basic constructor.
func TestNewAppError(t *testing.T) {
	underlying := errors.New("connection refused")
	appErr := NewAppError(ErrCodeProviderUnavailable, "billing provider unavailable", underlying)

	if appErr.Code != ErrCodeProviderUnavailable {
		t.Errorf("Code = %q, want %q", appErr.Code, ErrCodeProviderUnavailable)
	}
	if appErr.Message != "billing provider unavailable" {
		t.Errorf("Message = %q, want %q", appErr.Message, "billing provider unavailable")
	}
	if appErr.Err != underlying {
		t.Errorf("Err = %v, want %v", appErr.Err, underlying)
	}
	if appErr.Details != nil {
		t.Errorf("Details should be nil, got %v", appErr.Details)
	}
}

// TestAppErrorWithDetails verifies WithDetails creates a copy with merged details.
func TestAppErrorWithDetails(t *testing.T) {
	original := NewAppErrorWithDetails(
		ErrCodeValidationMissingField,
		"field is required",
		nil,
		map[string]any{"field": "brand_name"},
	)

	enhanced := original.WithDetails(map[string]any{
		"suggestion": "provide a non-empty brand name",
	})

	// Original should be unchanged.
	if _, ok := original.Details["suggestion"]; ok {
		t.Error("WithDetails should not mutate the original error")
	}

	if enhanced.Details["field"] != "brand_name" {
		t.Errorf("enhanced should retain original detail: field = %v", enhanced.Details["field"])
	}
	if enhanced.Details["suggestion"] != "provide a non-empty brand name" {
		t.Errorf("enhanced should have new detail: suggestion = %v", enhanced.Details["suggestion"])
	}
	if enhanced.Code != original.Code {
		t.Errorf("Code should carry over: got %q, want %q", enhanced.Code, original.Code)
	}
}

// TestErrorCodeHTTPStatusMapping verifies the mapping from error codes to HTTP statuses.
func TestErrorCodeHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		wantStatus int
	}{
		// Validation (400)
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeValidationInvalidField, http.StatusBadRequest},
		{ErrCodeValidationInvalidSlug, http.StatusBadRequest},
		{ErrCodeValidationInvalidEmail, http.StatusBadRequest},
		{ErrCodeValidationPayload, http.StatusBadRequest},

		// Auth (401)
		{ErrCodeAuthSessionMissing, http.StatusUnauthorized},
		{ErrCodeAuthSessionExpired, http.StatusUnauthorized},
		{ErrCodeAuthSessionInvalid, http.StatusUnauthorized},
		{ErrCodeAuthIdentityMismatch, http.StatusUnauthorized},
		{ErrCodeWebhookSignatureInvalid, http.StatusUnauthorized},

		// Not Found (404)
		{ErrCodeNotFoundProfile, http.StatusNotFound},
		{ErrCodeNotFoundKit, http.StatusNotFound},
		{ErrCodeNotFoundCollab, http.StatusNotFound},

		// Conflict (409)
		{ErrCodeConflictCollabClosed, http.StatusConflict},

		// Provider (502)
		{ErrCodeProviderRejected, http.StatusBadGateway},
		{ErrCodeProviderInvalidResponse, http.StatusBadGateway},
		{ErrCodeProviderUnavailable, http.StatusBadGateway},
		{ErrCodeProviderRateLimited, http.StatusBadGateway},

		// Server-side (500)
		{ErrCodeConfigMissing, http.StatusInternalServerError},
		{ErrCodeInternalDB, http.StatusInternalServerError},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			got := tt.code.HTTPStatus()
			if got != tt.wantStatus {
				t.Errorf("ErrorCode(%q).HTTPStatus() = %d, want %d", tt.code, got, tt.wantStatus)
			}
		})
	}
}

// TestErrorCodeHTTPStatusUnknown verifies that unrecognized codes default to 500.
func TestErrorCodeHTTPStatusUnknown(t *testing.T) {
	unknown := ErrorCode("totally_unknown_error")
	if unknown.HTTPStatus() != http.StatusInternalServerError {
		t.Errorf("unknown ErrorCode.HTTPStatus() = %d, want %d", unknown.HTTPStatus(), http.StatusInternalServerError)
	}
}
