package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"

	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

const (
	xenditInvoicePath        = "/v2/invoices"
	xenditPaymentRequestPath = "/payment_requests"
	xenditCardTokenPath      = "/credit_card_tokens"

	// maxResponseBytes caps how much of a gateway response is read
	maxResponseBytes = 1 << 20
)

// XenditAdapter implements finance.PaymentGateway against the Xendit REST API.
// It never retries; a failed call surfaces as a typed gateway error.
type XenditAdapter struct {
	config     *XenditConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewXenditAdapter creates a new Xendit adapter
func NewXenditAdapter(config *XenditConfig) (*XenditAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &XenditAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}, nil
}

// CreateInvoice opens a hosted invoice
func (a *XenditAdapter) CreateInvoice(ctx context.Context, req *finance.CreateInvoiceRequest) (*finance.Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "xendit.create_invoice",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("payment.external_id", req.ExternalID),
	)
	defer span.End()

	body := xenditInvoiceRequest{
		ExternalID:         req.ExternalID,
		Amount:             json.Number(req.Amount.String()),
		Currency:           req.Currency,
		Description:        req.Description,
		PayerEmail:         req.PayerEmail,
		InvoiceDuration:    int64(req.Duration / time.Second),
		SuccessRedirectURL: req.SuccessRedirectURL,
		FailureRedirectURL: req.FailureRedirectURL,
	}

	var resp xenditInvoiceResponse
	if err := a.doJSON(ctx, http.MethodPost, xenditInvoicePath, body, &resp); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if resp.ID == "" || resp.InvoiceURL == "" {
		err := fmt.Errorf("%w: invoice response missing id or url", finance.ErrGatewayInvalidResponse)
		telemetry.RecordError(span, err)
		return nil, err
	}

	invoice := &finance.Invoice{
		ID:         resp.ID,
		ExternalID: resp.ExternalID,
		Status:     finance.InvoiceStatus(resp.Status),
		Amount:     parseAmount(resp.Amount, req.Amount),
		Currency:   resp.Currency,
		InvoiceURL: resp.InvoiceURL,
	}
	if invoice.Currency == "" {
		invoice.Currency = req.Currency
	}
	if expires, err := time.Parse(time.RFC3339Nano, resp.ExpiryDate); err == nil {
		invoice.ExpiresAt = expires
	} else if req.Duration > 0 {
		invoice.ExpiresAt = a.now().Add(req.Duration)
	}

	telemetry.SetAttributes(span, "payment.gateway_id", invoice.ID)
	telemetry.SetOK(span)
	return invoice, nil
}

// CreatePaymentRequest charges a payment method directly
func (a *XenditAdapter) CreatePaymentRequest(ctx context.Context, req *finance.CreatePaymentRequestInput) (*finance.PaymentRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "xendit.create_payment_request",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("payment.reference_id", req.ReferenceID),
		telemetry.WithAttribute("payment.method", string(req.PaymentMethod.Type)),
	)
	defer span.End()

	reusability := req.PaymentMethod.Reusability
	if reusability == "" {
		reusability = "ONE_TIME_USE"
	}
	method := xenditPaymentMethodFields{
		Type:        string(req.PaymentMethod.Type),
		Reusability: reusability,
	}
	if req.PaymentMethod.Type == finance.PaymentMethodCard {
		method.Card = &xenditCard{TokenID: req.PaymentMethod.CardTokenID}
	} else if req.PaymentMethod.ChannelCode != "" {
		method.Channel = &xenditChannel{ChannelCode: req.PaymentMethod.ChannelCode}
	}

	body := xenditPaymentRequestBody{
		ReferenceID:   req.ReferenceID,
		Amount:        json.Number(req.Amount.String()),
		Currency:      req.Currency,
		Description:   req.Description,
		PaymentMethod: method,
	}

	var resp xenditPaymentRequestResponse
	if err := a.doJSON(ctx, http.MethodPost, xenditPaymentRequestPath, body, &resp); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if resp.ID == "" {
		err := fmt.Errorf("%w: payment request response missing id", finance.ErrGatewayInvalidResponse)
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &finance.PaymentRequest{
		ID:          resp.ID,
		ReferenceID: resp.ReferenceID,
		Status:      resp.Status,
		Amount:      parseAmount(resp.Amount, req.Amount),
		Currency:    resp.Currency,
	}
	for _, action := range resp.Actions {
		if action.URL != "" {
			result.ActionURL = action.URL
			break
		}
	}

	telemetry.SetOK(span)
	return result, nil
}

// CreateCardToken tokenizes a card. The card is normalized first so that
// malformed input never reaches the gateway.
func (a *XenditAdapter) CreateCardToken(ctx context.Context, card finance.CardDetails) (*finance.CardToken, error) {
	normalized, err := card.Normalize(a.now())
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "xendit.create_card_token",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("card.multi_use", normalized.IsMultiUse),
	)
	defer span.End()

	body := xenditCardTokenRequest{
		CardData: xenditCardData{
			AccountNumber:   normalized.Number,
			ExpMonth:        normalized.ExpMonth,
			ExpYear:         normalized.ExpYear,
			CardHolderFirst: normalized.HolderName,
		},
		CardCVN:       normalized.CVN,
		IsMultipleUse: normalized.IsMultiUse,
		ShouldAuth:    true,
	}
	if normalized.Amount.IsPositive() {
		body.Amount = json.Number(normalized.Amount.String())
	}

	var resp xenditCardTokenResponse
	if err := a.doJSON(ctx, http.MethodPost, xenditCardTokenPath, body, &resp); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if resp.ID == "" {
		err := fmt.Errorf("%w: card token response missing id", finance.ErrGatewayInvalidResponse)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetOK(span)
	return &finance.CardToken{
		ID:               resp.ID,
		AuthenticationID: resp.AuthenticationID,
		Status:           resp.Status,
		MaskedCardNumber: resp.MaskedCardNumber,
		PayerAuthURL:     resp.PayerAuthenticationURL,
	}, nil
}

// doJSON marshals in, performs the request and decodes the response into out
func (a *XenditAdapter) doJSON(ctx context.Context, method, path string, in, out any) error {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("xendit: failed to marshal request: %w", err)
	}

	respBody, err := a.doRequest(ctx, method, path, bodyBytes)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", finance.ErrGatewayInvalidResponse, err)
	}
	return nil
}

// doRequest performs an HTTP request to the Xendit API.
// Transport failures and 5xx map to ErrGatewayUnavailable, 4xx to ErrGatewayRejected.
func (a *XenditAdapter) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := strings.TrimRight(a.config.BaseURL, "/") + path

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("xendit: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(a.config.SecretKey, "")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", finance.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", finance.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		sentinel := finance.ErrGatewayRejected
		if resp.StatusCode >= 500 {
			sentinel = finance.ErrGatewayUnavailable
		}
		var errResp xenditErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.ErrorCode != "" {
			return nil, &GatewayError{
				StatusCode: resp.StatusCode,
				Code:       errResp.ErrorCode,
				Message:    errResp.Message,
				sentinel:   sentinel,
			}
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode), sentinel: sentinel}
	}

	return respBody, nil
}

// GatewayError carries the provider's status and error code.
// It unwraps to finance.ErrGatewayRejected or finance.ErrGatewayUnavailable.
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
	sentinel   error
}

// Error implements error
func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%v: HTTP %d %s - %s", e.sentinel, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%v: HTTP %d %s", e.sentinel, e.StatusCode, e.Message)
}

// Unwrap returns the sentinel classifying the failure
func (e *GatewayError) Unwrap() error {
	return e.sentinel
}

// AsGatewayError extracts a *GatewayError from err
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// parseAmount reads a gateway amount, falling back to the requested one
func parseAmount(n json.Number, fallback decimal.Decimal) decimal.Decimal {
	if n == "" {
		return fallback
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return fallback
	}
	return d
}
