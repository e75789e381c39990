package payment

import "encoding/json"

// xenditErrorResponse represents an error response from Xendit
type xenditErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// xenditInvoiceRequest is the body of POST /v2/invoices
type xenditInvoiceRequest struct {
	ExternalID         string      `json:"external_id"`
	Amount             json.Number `json:"amount"`
	Currency           string      `json:"currency"`
	Description        string      `json:"description"`
	PayerEmail         string      `json:"payer_email,omitempty"`
	InvoiceDuration    int64       `json:"invoice_duration,omitempty"`
	SuccessRedirectURL string      `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string      `json:"failure_redirect_url,omitempty"`
}

// xenditInvoiceResponse is the subset of the invoice resource we use
type xenditInvoiceResponse struct {
	ID         string      `json:"id"`
	ExternalID string      `json:"external_id"`
	Status     string      `json:"status"`
	Amount     json.Number `json:"amount"`
	Currency   string      `json:"currency"`
	InvoiceURL string      `json:"invoice_url"`
	ExpiryDate string      `json:"expiry_date"`
}

// xenditPaymentRequestBody is the body of POST /payment_requests
type xenditPaymentRequestBody struct {
	ReferenceID   string                    `json:"reference_id"`
	Amount        json.Number               `json:"amount"`
	Currency      string                    `json:"currency"`
	Description   string                    `json:"description,omitempty"`
	PaymentMethod xenditPaymentMethodFields `json:"payment_method"`
}

// xenditPaymentMethodFields describes the charged payment method
type xenditPaymentMethodFields struct {
	Type        string         `json:"type"`
	Reusability string         `json:"reusability"`
	Card        *xenditCard    `json:"card,omitempty"`
	Channel     *xenditChannel `json:"ewallet,omitempty"`
}

// xenditCard references a tokenized card
type xenditCard struct {
	TokenID string `json:"token_id"`
}

// xenditChannel selects a non-card channel
type xenditChannel struct {
	ChannelCode string `json:"channel_code"`
}

// xenditPaymentRequestResponse is the subset of the payment request resource we use
type xenditPaymentRequestResponse struct {
	ID          string         `json:"id"`
	ReferenceID string         `json:"reference_id"`
	Status      string         `json:"status"`
	Amount      json.Number    `json:"amount"`
	Currency    string         `json:"currency"`
	Actions     []xenditAction `json:"actions"`
}

// xenditAction is a follow-up the payer must take, such as a redirect
type xenditAction struct {
	Action  string `json:"action"`
	URL     string `json:"url"`
	URLType string `json:"url_type"`
}

// xenditCardTokenRequest is the body of POST /credit_card_tokens
type xenditCardTokenRequest struct {
	CardData      xenditCardData `json:"card_data"`
	CardCVN       string         `json:"card_cvn"`
	IsMultipleUse bool           `json:"is_multiple_use"`
	Amount        json.Number    `json:"amount,omitempty"`
	ShouldAuth    bool           `json:"should_authenticate"`
}

// xenditCardData holds the raw card number and expiry
type xenditCardData struct {
	AccountNumber   string `json:"account_number"`
	ExpMonth        string `json:"exp_month"`
	ExpYear         string `json:"exp_year"`
	CardHolderFirst string `json:"card_holder_first_name,omitempty"`
}

// xenditCardTokenResponse is the tokenization result
type xenditCardTokenResponse struct {
	ID                     string `json:"id"`
	AuthenticationID       string `json:"authentication_id"`
	Status                 string `json:"status"`
	MaskedCardNumber       string `json:"masked_card_number"`
	PayerAuthenticationURL string `json:"payer_authentication_url"`
}
