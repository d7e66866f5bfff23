// Package config defines the global configuration structure for the Presskit
// backend. Configuration is loaded once at process initialization and is
// immutable thereafter. It follows 12-Factor App principles by strictly
// separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Any missing required value or invalid format causes the application to fail
// immediately on startup (fail fast). Billing provider credentials are the one
// exception: they are intentionally NOT validated at startup so that a
// misconfigured deployment degrades to per-request config_missing errors on
// the checkout path instead of taking the whole API down.
package config

import (
	"time"

	"presskit/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type used
// throughout configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the Presskit backend.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"presskit-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Auth          AuthConfig
	Billing       BillingConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server and public URL configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	// Public URLs for redirects (no trailing slash)
	APIExternalURL string `envconfig:"API_EXTERNAL_URL" validate:"required,url"` // e.g., https://api.presskit.io
	AppURL         string `envconfig:"APP_URL" validate:"required,url"`          // e.g., https://app.presskit.io

	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"20s"`

	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	// Resolved from SSM or Env
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// NotificationQueue receives collab-submitted and billing-alert messages
	// consumed by the email worker. Empty disables queue publishing.
	NotificationQueue string `envconfig:"SQS_NOTIFICATIONS" validate:"omitempty,url"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// AuthConfig holds the external auth provider connection settings.
// Sessions are issued and stored by the provider; this service only
// validates and refreshes them.
type AuthConfig struct {
	ProviderBaseURL string        `envconfig:"AUTH_PROVIDER_URL" validate:"required,url"`
	ServiceKey      SecretString  `envconfig:"AUTH_SERVICE_KEY" validate:"required"`
	RequestTimeout  time.Duration `envconfig:"AUTH_REQUEST_TIMEOUT" default:"5s"`
}

// BillingConfig holds the billing provider credentials and checkout defaults.
// None of these fields are startup-validated; the checkout service reports
// config_missing per request when they are absent (webhook verification
// likewise fails closed per request when the secret is missing).
type BillingConfig struct {
	APIBaseURL       string        `envconfig:"BILLING_API_URL" default:"https://api.lemonsqueezy.com"`
	APIKey           SecretString  `envconfig:"BILLING_API_KEY"`
	StoreID          string        `envconfig:"BILLING_STORE_ID"`
	DefaultVariantID string        `envconfig:"BILLING_DEFAULT_VARIANT_ID"`
	WebhookSecret    SecretString  `envconfig:"BILLING_WEBHOOK_SECRET"`
	TestMode         bool          `envconfig:"BILLING_TEST_MODE" default:"false"`
	RequestTimeout   time.Duration `envconfig:"BILLING_REQUEST_TIMEOUT" default:"10s"`
}

// ObservabilityConfig holds telemetry and monitoring settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Presskit"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
