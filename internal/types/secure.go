package types

// redactedPlaceholder replaces secret values in logs and serialization.
const redactedPlaceholder = "***REDACTED***"

// redactedJSON is the pre-computed JSON encoding of the redacted placeholder.
var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString holds a sensitive value (API keys, webhook secrets, connection
// strings) and prevents it from leaking through fmt functions, structured
// logging, or JSON serialization. String() and MarshalJSON() both return a
// redacted placeholder.
//
// Call Unmask() at the point where the plaintext is genuinely needed, such as
// building an Authorization header or computing an HMAC.
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw plaintext value of the secret.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsZero reports whether the secret is empty. Used by config validation to
// detect missing required secrets without unmasking them.
func (s SecretString) IsZero() bool {
	return s == ""
}
