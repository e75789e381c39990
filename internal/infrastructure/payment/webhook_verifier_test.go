package payment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/printmarket/backend/internal/domain/finance"
)

func TestHMACWebhookVerifier_Verify(t *testing.T) {
	v := NewHMACWebhookVerifier("callback-secret")
	body := []byte(`{"event":"invoice.paid","data":{"id":"inv-1","external_id":"order_x_1","amount":100}}`)
	sig := v.Sign(body)

	tests := []struct {
		name      string
		body      []byte
		signature string
		wantErr   error
	}{
		{name: "valid signature", body: body, signature: sig},
		{name: "uppercase hex is accepted", body: body, signature: strings.ToUpper(sig)},
		{name: "tampered body", body: []byte(strings.Replace(string(body), "100", "900", 1)), signature: sig, wantErr: finance.ErrGatewayInvalidCallback},
		{name: "missing signature", body: body, signature: "", wantErr: finance.ErrGatewayInvalidCallback},
		{name: "non-hex signature", body: body, signature: "not-hex", wantErr: finance.ErrGatewayInvalidCallback},
		{name: "truncated signature", body: body, signature: sig[:32], wantErr: finance.ErrGatewayInvalidCallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.body, tt.signature)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHMACWebhookVerifier_WrongSecret(t *testing.T) {
	body := []byte(`{"id":"inv-1","status":"PAID"}`)
	sig := NewHMACWebhookVerifier("other-secret").Sign(body)

	err := NewHMACWebhookVerifier("callback-secret").Verify(body, sig)
	assert.ErrorIs(t, err, finance.ErrGatewayInvalidCallback)
}

func TestHMACWebhookVerifier_Unconfigured(t *testing.T) {
	v := NewHMACWebhookVerifier("")
	err := v.Verify([]byte("{}"), v.Sign([]byte("{}")))
	assert.ErrorIs(t, err, finance.ErrGatewayNotConfigured)
}
