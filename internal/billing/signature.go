// Package billing contains the subscription domain logic: checkout creation,
// webhook authentication, and the event dispatcher that keeps the profile
// store's pro state in sync with the billing provider.
package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"presskit/internal/types"
)

// Verifier authenticates inbound webhook deliveries. The provider signs the
// raw request body with HMAC-SHA256 and sends the hex digest in X-Signature;
// verification operates on the undecoded bytes so that a byte-different but
// semantically-equivalent JSON body can never pass with a stale signature.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier from the shared webhook secret.
// An empty secret is a configuration error: the verifier fails closed rather
// than treating unsigned deliveries as trusted.
func NewVerifier(secret types.SecretString) (*Verifier, error) {
	trimmed := strings.TrimSpace(secret.Unmask())
	if trimmed == "" {
		return nil, fmt.Errorf("webhook verifier: shared secret is empty")
	}
	return &Verifier{secret: []byte(trimmed)}, nil
}

// Verify checks the signature header against the raw body bytes.
// Returns a webhook_signature_invalid error on a missing or mismatched
// signature; the caller must not parse the body after a failure.
func (v *Verifier) Verify(rawBody []byte, header string) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return types.NewAppError(types.ErrCodeWebhookSignatureInvalid, "missing signature header", nil)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(strings.ToLower(header)), []byte(expected)) {
		return types.NewAppError(types.ErrCodeWebhookSignatureInvalid, "signature does not match payload", nil)
	}
	return nil
}
