package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardDetails_Normalize(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	t.Run("strips separators and pads expiry", func(t *testing.T) {
		card, err := CardDetails{Number: "4000 0000-0000 0002", ExpMonth: "3", ExpYear: "27", CVN: " 123 "}.Normalize(now)
		require.NoError(t, err)
		assert.Equal(t, "4000000000000002", card.Number)
		assert.Equal(t, "03", card.ExpMonth)
		assert.Equal(t, "2027", card.ExpYear)
		assert.Equal(t, "123", card.CVN)
	})

	t.Run("strips tabs and line breaks from the number", func(t *testing.T) {
		card, err := CardDetails{Number: "4000\t0000\n0000\r\n0002 ", ExpMonth: "12", ExpYear: "2030", CVN: "123"}.Normalize(now)
		require.NoError(t, err)
		assert.Equal(t, "4000000000000002", card.Number)
	})

	tests := []struct {
		name string
		card CardDetails
		err  error
	}{
		{"short number", CardDetails{Number: "4000", ExpMonth: "12", ExpYear: "2030", CVN: "123"}, ErrCardInvalidNumber},
		{"letters in number", CardDetails{Number: "4000abcd00000002", ExpMonth: "12", ExpYear: "2030", CVN: "123"}, ErrCardInvalidNumber},
		{"month out of range", CardDetails{Number: "4000000000000002", ExpMonth: "13", ExpYear: "2030", CVN: "123"}, ErrCardInvalidExpiry},
		{"three digit year", CardDetails{Number: "4000000000000002", ExpMonth: "12", ExpYear: "203", CVN: "123"}, ErrCardInvalidExpiry},
		{"expired", CardDetails{Number: "4000000000000002", ExpMonth: "05", ExpYear: "2025", CVN: "123"}, ErrCardInvalidExpiry},
		{"short cvn", CardDetails{Number: "4000000000000002", ExpMonth: "12", ExpYear: "2030", CVN: "12"}, ErrCardInvalidCVN},
		{"alpha cvn", CardDetails{Number: "4000000000000002", ExpMonth: "12", ExpYear: "2030", CVN: "12a"}, ErrCardInvalidCVN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.card.Normalize(now)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCreateInvoiceRequest_Validate(t *testing.T) {
	valid := func() CreateInvoiceRequest {
		return CreateInvoiceRequest{ExternalID: "order_x_1", Amount: decimal.NewFromInt(100), Currency: "PHP", Description: "Order"}
	}

	req := valid()
	assert.NoError(t, req.Validate())

	req = valid()
	req.Amount = decimal.Zero
	assert.ErrorIs(t, req.Validate(), ErrPaymentInvalidAmount)

	req = valid()
	req.ExternalID = ""
	assert.ErrorIs(t, req.Validate(), ErrPaymentInvalidReference)

	req = valid()
	req.Currency = "PESO"
	assert.ErrorIs(t, req.Validate(), ErrPaymentInvalidCurrency)

	req = valid()
	req.Description = "  "
	assert.ErrorIs(t, req.Validate(), ErrPaymentInvalidDescription)
}

func TestCreatePaymentRequestInput_Validate(t *testing.T) {
	req := CreatePaymentRequestInput{
		ReferenceID:   "customization-x-1",
		Amount:        decimal.NewFromInt(400),
		Currency:      "PHP",
		PaymentMethod: PaymentMethod{Type: PaymentMethodEWallet, ChannelCode: "GCASH"},
	}
	assert.NoError(t, req.Validate())

	req.PaymentMethod = PaymentMethod{Type: PaymentMethodCard}
	assert.ErrorIs(t, req.Validate(), ErrPaymentInvalidMethod)

	req.PaymentMethod.CardTokenID = "tok-1"
	assert.NoError(t, req.Validate())

	req.PaymentMethod.Type = "CHEQUE"
	assert.ErrorIs(t, req.Validate(), ErrPaymentInvalidMethod)
}
