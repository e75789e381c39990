package customization

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RequestStatus is the workflow state of a customization request
type RequestStatus string

const (
	StatusPending                  RequestStatus = "pending"
	StatusInProgress               RequestStatus = "in_progress"
	StatusAwaitingCustomerApproval RequestStatus = "awaiting_customer_approval"
	StatusAwaitingPricing          RequestStatus = "awaiting_pricing"
	StatusApproved                 RequestStatus = "approved"
	StatusCompleted                RequestStatus = "completed"
	StatusCancelled                RequestStatus = "cancelled"
)

// IsValid checks if the status is a valid RequestStatus
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusAwaitingCustomerApproval, StatusAwaitingPricing,
		StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RequestStatus
func (s RequestStatus) String() string {
	return string(s)
}

// AcceptsPricing reports whether the designer may propose pricing in this status
func (s RequestStatus) AcceptsPricing() bool {
	switch s {
	case StatusInProgress, StatusAwaitingCustomerApproval, StatusAwaitingPricing:
		return true
	}
	return false
}

// CustomizationRequest is a design-and-print engagement between a customer,
// a designer and, once assigned, a printing shop
type CustomizationRequest struct {
	shared.BaseAggregateRoot
	CustomerID     uuid.UUID
	DesignerID     uuid.UUID
	PrintingShopID *uuid.UUID
	Title          string
	Status         RequestStatus
	Pricing        *PricingAgreement
	Payment        *PaymentDetails
}

// NewCustomizationRequest creates a request assigned to a designer
func NewCustomizationRequest(customerID, designerID uuid.UUID, title string) (*CustomizationRequest, error) {
	if customerID == uuid.Nil || designerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer and designer are required")
	}
	if title == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Title cannot be empty")
	}
	return &CustomizationRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		DesignerID:        designerID,
		Title:             title,
		Status:            StatusInProgress,
	}, nil
}

// IsParticipant reports whether the user may see the request's payment data
func (r *CustomizationRequest) IsParticipant(userID uuid.UUID) bool {
	if userID == r.CustomerID || userID == r.DesignerID {
		return true
	}
	return r.PrintingShopID != nil && *r.PrintingShopID == userID
}

// ProposePricing replaces the pricing agreement and resets the escrow ledger
func (r *CustomizationRequest) ProposePricing(designerID uuid.UUID, in PricingInput) error {
	if designerID != r.DesignerID {
		return shared.NewDomainError(shared.CodeForbidden, "Only the assigned designer can set pricing")
	}
	if !r.Status.AcceptsPricing() {
		return shared.NewDomainError(shared.CodeInvalidState, "Pricing cannot be set while request is "+r.Status.String())
	}
	if r.Payment != nil && r.Payment.HasSettledPayments() {
		return shared.NewDomainError(shared.CodeInvalidState, "Pricing cannot change after a payment was issued")
	}
	if err := in.Validate(); err != nil {
		return err
	}

	r.Pricing = newPricingAgreement(in, time.Now())
	r.Payment = newPaymentDetails(in)
	r.Status = StatusAwaitingCustomerApproval
	r.Touch()

	r.AddDomainEvent(NewPricingProposedEvent(r))
	return nil
}

// AgreeToPricing records the customer's acceptance
func (r *CustomizationRequest) AgreeToPricing(customerID uuid.UUID) error {
	if customerID != r.CustomerID {
		return shared.NewDomainError(shared.CodeForbidden, "Only the customer can agree to pricing")
	}
	if r.Pricing == nil {
		return shared.NewDomainError(shared.CodeInvalidState, "No pricing agreement to agree to")
	}
	if r.Pricing.AgreedByCustomer {
		return shared.NewDomainError(shared.CodeAlreadyAgreed, "Pricing has already been agreed")
	}

	now := time.Now()
	r.Pricing.AgreedByCustomer = true
	r.Pricing.AgreedAt = &now
	r.Pricing.RejectionReason = ""
	r.Status = StatusApproved
	r.Touch()

	r.AddDomainEvent(NewPricingAgreedEvent(r))
	return nil
}

// RejectPricing sends the request back to the designer for a new proposal
func (r *CustomizationRequest) RejectPricing(customerID uuid.UUID, reason string) error {
	if customerID != r.CustomerID {
		return shared.NewDomainError(shared.CodeForbidden, "Only the customer can reject pricing")
	}
	if r.Pricing == nil {
		return shared.NewDomainError(shared.CodeInvalidState, "No pricing agreement to reject")
	}
	if r.Pricing.AgreedByCustomer {
		return shared.NewDomainError(shared.CodeAlreadyAgreed, "Pricing has already been agreed")
	}

	r.Pricing.RejectionReason = reason
	r.Status = StatusAwaitingPricing
	r.Touch()
	return nil
}

// CheckPaymentAllowed verifies the customer may open an invoice for amount
func (r *CustomizationRequest) CheckPaymentAllowed(customerID uuid.UUID, amount decimal.Decimal, milestoneID *uuid.UUID) error {
	if customerID != r.CustomerID {
		return shared.NewDomainError(shared.CodeForbidden, "Only the customer can pay for this request")
	}
	if r.Payment == nil {
		return shared.NewDomainError(shared.CodeInvalidState, "Payment details have not been set up")
	}
	if !r.Pricing.IsFullyAgreed() {
		return shared.NewDomainError(shared.CodeInvalidState, "Pricing must be agreed before payment")
	}
	if r.Payment.PaymentStatus == LedgerStatusFullyPaid {
		return shared.NewDomainError(shared.CodeInvalidState, "Request is already fully paid")
	}
	return r.Payment.ValidatePaymentAmount(amount, milestoneID)
}

// AddPendingPayment appends an issued invoice to the ledger; it does not
// count toward the paid amount until confirmed
func (r *CustomizationRequest) AddPendingPayment(rec PaymentRecord) error {
	if r.Payment == nil {
		return shared.NewDomainError(shared.CodeInvalidState, "Payment details have not been set up")
	}
	if rec.ID == "" {
		return shared.NewDomainError(shared.CodeValidation, "Payment ID cannot be empty")
	}
	if r.Payment.FindPayment(rec.ID) != nil {
		return shared.NewDomainError(shared.CodeInvalidState, "Payment "+rec.ID+" already recorded")
	}
	rec.Status = PaymentRecordPending
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	r.Payment.Payments = append(r.Payment.Payments, rec)
	r.Touch()
	return nil
}

// ConfirmPayment applies a successful gateway payment to the escrow ledger
func (r *CustomizationRequest) ConfirmPayment(paymentID string, amount decimal.Decimal, transactionID string, paidAt time.Time) (PaymentResult, error) {
	if r.Payment == nil {
		return PaymentResult{}, shared.NewDomainError(shared.CodeInvalidState, "Payment details have not been set up")
	}
	result, err := r.Payment.confirm(paymentID, amount, transactionID, paidAt)
	if err != nil {
		return result, err
	}
	if result.Outcome == OutcomeApplied {
		r.Touch()
		r.AddDomainEvent(NewPaymentReceivedEvent(r, paymentID, result))
	}
	return result, nil
}

// FailPayment marks a pending gateway payment as failed
func (r *CustomizationRequest) FailPayment(paymentID, reason string) (PaymentResult, error) {
	if r.Payment == nil {
		return PaymentResult{}, shared.NewDomainError(shared.CodeInvalidState, "Payment details have not been set up")
	}
	result, err := r.Payment.fail(paymentID, reason)
	if err != nil {
		return result, err
	}
	if result.Outcome == OutcomeApplied {
		r.Touch()
		r.AddDomainEvent(NewPaymentFailedEvent(r, paymentID, reason, result))
	}
	return result, nil
}
