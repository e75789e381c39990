package finance

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Payment Gateway Errors
// ---------------------------------------------------------------------------

var (
	// Request validation errors
	ErrPaymentInvalidAmount      = errors.New("payment: invalid payment amount")
	ErrPaymentInvalidCurrency    = errors.New("payment: invalid currency")
	ErrPaymentInvalidReference   = errors.New("payment: invalid external reference")
	ErrPaymentInvalidDescription = errors.New("payment: invalid description")
	ErrPaymentInvalidMethod      = errors.New("payment: invalid payment method")

	// Card errors
	ErrCardInvalidNumber = errors.New("card: invalid card number")
	ErrCardInvalidExpiry = errors.New("card: invalid expiry date")
	ErrCardInvalidCVN    = errors.New("card: invalid card verification number")

	// Gateway errors
	ErrGatewayNotConfigured   = errors.New("payment: gateway not configured")
	ErrGatewayUnavailable     = errors.New("payment: gateway temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("payment: gateway request failed")
	ErrGatewayRejected        = errors.New("payment: gateway rejected request")
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
	ErrGatewayInvalidCallback = errors.New("payment: invalid callback signature")
)

// ---------------------------------------------------------------------------
// Invoice
// ---------------------------------------------------------------------------

// InvoiceStatus is the gateway-side state of a hosted invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusSettled InvoiceStatus = "SETTLED"
	InvoiceStatusExpired InvoiceStatus = "EXPIRED"
)

// CreateInvoiceRequest is the input for a hosted-payment-page invoice
type CreateInvoiceRequest struct {
	ExternalID         string
	Amount             decimal.Decimal
	Currency           string
	Description        string
	PayerEmail         string
	SuccessRedirectURL string
	FailureRedirectURL string
	Duration           time.Duration
}

// Validate validates the invoice request
func (r *CreateInvoiceRequest) Validate() error {
	if r.ExternalID == "" {
		return ErrPaymentInvalidReference
	}
	if !r.Amount.IsPositive() {
		return ErrPaymentInvalidAmount
	}
	if len(r.Currency) != 3 {
		return ErrPaymentInvalidCurrency
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrPaymentInvalidDescription
	}
	return nil
}

// Invoice is the gateway's handle for a hosted invoice
type Invoice struct {
	ID         string
	ExternalID string
	Status     InvoiceStatus
	Amount     decimal.Decimal
	Currency   string
	InvoiceURL string
	ExpiresAt  time.Time
}

// ---------------------------------------------------------------------------
// Payment request
// ---------------------------------------------------------------------------

// PaymentMethodType names the channel of a direct payment request
type PaymentMethodType string

const (
	PaymentMethodCard           PaymentMethodType = "CARD"
	PaymentMethodEWallet        PaymentMethodType = "EWALLET"
	PaymentMethodVirtualAccount PaymentMethodType = "VIRTUAL_ACCOUNT"
	PaymentMethodQRCode         PaymentMethodType = "QR_CODE"
)

// IsValid returns true if the payment method type is supported
func (t PaymentMethodType) IsValid() bool {
	switch t {
	case PaymentMethodCard, PaymentMethodEWallet, PaymentMethodVirtualAccount, PaymentMethodQRCode:
		return true
	}
	return false
}

// PaymentMethod describes how a payment request is charged
type PaymentMethod struct {
	Type        PaymentMethodType
	ChannelCode string
	CardTokenID string
	Reusability string
}

// CreatePaymentRequestInput is the input for a direct payment request
type CreatePaymentRequestInput struct {
	ReferenceID   string
	Amount        decimal.Decimal
	Currency      string
	Description   string
	PaymentMethod PaymentMethod
}

// Validate validates the payment request
func (r *CreatePaymentRequestInput) Validate() error {
	if r.ReferenceID == "" {
		return ErrPaymentInvalidReference
	}
	if !r.Amount.IsPositive() {
		return ErrPaymentInvalidAmount
	}
	if len(r.Currency) != 3 {
		return ErrPaymentInvalidCurrency
	}
	if !r.PaymentMethod.Type.IsValid() {
		return ErrPaymentInvalidMethod
	}
	if r.PaymentMethod.Type == PaymentMethodCard && r.PaymentMethod.CardTokenID == "" {
		return ErrPaymentInvalidMethod
	}
	return nil
}

// PaymentRequest is the gateway's handle for a direct payment request
type PaymentRequest struct {
	ID          string
	ReferenceID string
	Status      string
	Amount      decimal.Decimal
	Currency    string
	ActionURL   string
}

// ---------------------------------------------------------------------------
// Card token
// ---------------------------------------------------------------------------

var cvnPattern = regexp.MustCompile(`^[0-9]{3,4}$`)

// CardDetails are raw card inputs as typed by the customer
type CardDetails struct {
	Number     string
	ExpMonth   string
	ExpYear    string
	CVN        string
	Amount     decimal.Decimal
	IsMultiUse bool
	HolderName string
}

// Normalize strips separators from the card number, zero-pads the month and
// expands a two-digit year, then validates every field
func (c CardDetails) Normalize(now time.Time) (CardDetails, error) {
	out := c
	out.Number = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, c.Number)
	if len(out.Number) < 12 || len(out.Number) > 19 || !isDigits(out.Number) {
		return CardDetails{}, ErrCardInvalidNumber
	}

	month, err := strconv.Atoi(strings.TrimSpace(c.ExpMonth))
	if err != nil || month < 1 || month > 12 {
		return CardDetails{}, ErrCardInvalidExpiry
	}
	out.ExpMonth = padMonth(month)

	year := strings.TrimSpace(c.ExpYear)
	if len(year) == 2 {
		year = "20" + year
	}
	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return CardDetails{}, ErrCardInvalidExpiry
	}
	if y < now.Year() || (y == now.Year() && month < int(now.Month())) {
		return CardDetails{}, ErrCardInvalidExpiry
	}
	out.ExpYear = year

	out.CVN = strings.TrimSpace(c.CVN)
	if !cvnPattern.MatchString(out.CVN) {
		return CardDetails{}, ErrCardInvalidCVN
	}
	return out, nil
}

// CardToken is a tokenized card handle
type CardToken struct {
	ID               string
	AuthenticationID string
	Status           string
	MaskedCardNumber string
	PayerAuthURL     string
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func padMonth(m int) string {
	if m < 10 {
		return "0" + strconv.Itoa(m)
	}
	return strconv.Itoa(m)
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// PaymentGateway is the outbound port to the external payment provider.
// Implementations never retry; retry is the caller's decision.
type PaymentGateway interface {
	// CreateInvoice opens a hosted invoice
	CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*Invoice, error)

	// CreatePaymentRequest charges a payment method directly
	CreatePaymentRequest(ctx context.Context, req *CreatePaymentRequestInput) (*PaymentRequest, error)

	// CreateCardToken tokenizes a normalized card
	CreateCardToken(ctx context.Context, card CardDetails) (*CardToken, error)
}

// WebhookVerifier authenticates inbound webhook bodies
type WebhookVerifier interface {
	// Verify checks signature against the exact raw body bytes
	Verify(body []byte, signature string) error
}
