package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/printmarket/backend/internal/domain/finance"
)

// CallbackTokenHeader carries the webhook signature
const CallbackTokenHeader = "x-callback-token"

// HMACWebhookVerifier checks that a webhook body was signed with the shared
// callback secret: the header holds hex(HMAC-SHA256(body, secret)).
type HMACWebhookVerifier struct {
	secret []byte
}

// NewHMACWebhookVerifier creates a verifier for the given callback secret
func NewHMACWebhookVerifier(secret string) *HMACWebhookVerifier {
	return &HMACWebhookVerifier{secret: []byte(secret)}
}

// Sign returns the hex signature of body. It is used by tests and tooling
// that replay webhooks.
func (v *HMACWebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the signature in constant time. An unconfigured secret
// rejects every delivery.
func (v *HMACWebhookVerifier) Verify(body []byte, signature string) error {
	if len(v.secret) == 0 {
		return finance.ErrGatewayNotConfigured
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) != sha256.Size {
		return finance.ErrGatewayInvalidCallback
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return finance.ErrGatewayInvalidCallback
	}
	return nil
}

var _ finance.WebhookVerifier = (*HMACWebhookVerifier)(nil)
