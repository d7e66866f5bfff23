package core

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"presskit/internal/types"
)

// slugPattern matches public kit slugs: lowercase alphanumerics and hyphens,
// no leading/trailing hyphen, 3 to 63 characters.
var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])$`)

// Validator wraps go-playground/validator with the domain-specific tags
// request structs use.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator and registers custom tags.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())

	// "slug" validates public kit slugs.
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return ValidSlug(fl.Field().String())
	})

	return &Validator{validate: v, logger: logger}
}

// ValidSlug reports whether s is an acceptable public kit slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// ValidateStruct checks dst against its validate tags and maps the first
// failures into a validation AppError with per-field details.
func (v *Validator) ValidateStruct(dst interface{}) error {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	details := make(map[string]any, len(validationErrs))
	for _, fieldErr := range validationErrs {
		details[fieldName(fieldErr)] = failureMessage(fieldErr)
	}

	code := types.ErrCodeValidationInvalidField
	for _, fieldErr := range validationErrs {
		if fieldErr.Tag() == "required" {
			code = types.ErrCodeValidationMissingField
			break
		}
	}

	return types.NewAppErrorWithDetails(code, "request validation failed", nil, details)
}

// fieldName returns the JSON-ish field path for a validation failure,
// trimming the root struct name.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}
	return strings.ToLower(ns)
}

// failureMessage renders a short human-readable reason per failed tag.
func failureMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "slug":
		return "must be 3-63 lowercase letters, digits, or hyphens"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
