package customization

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LedgerStatus is the aggregate payment progress of a customization
type LedgerStatus string

const (
	LedgerStatusPending       LedgerStatus = "pending"
	LedgerStatusPartiallyPaid LedgerStatus = "partially_paid"
	LedgerStatusFullyPaid     LedgerStatus = "fully_paid"
)

// EscrowStatus tracks release of collected funds to designer and shop
type EscrowStatus string

const (
	EscrowStatusHeld          EscrowStatus = "held"
	EscrowStatusDesignerPaid  EscrowStatus = "designer_paid"
	EscrowStatusShopPaid      EscrowStatus = "shop_paid"
	EscrowStatusFullyReleased EscrowStatus = "fully_released"
)

// PaymentRecordStatus is the state of one gateway invoice
type PaymentRecordStatus string

const (
	PaymentRecordPending PaymentRecordStatus = "pending"
	PaymentRecordSuccess PaymentRecordStatus = "success"
	PaymentRecordFailed  PaymentRecordStatus = "failed"
)

// Milestone is a named partial amount of the total cost
type Milestone struct {
	ID          uuid.UUID
	Description string
	Amount      decimal.Decimal
	IsPaid      bool
	PaidAt      *time.Time
	PaymentID   string
}

// PaymentRecord is one invoice issued against the escrow ledger.
// ID is the gateway invoice ID.
type PaymentRecord struct {
	ID                string
	Amount            decimal.Decimal
	PaymentMethod     string
	Status            PaymentRecordStatus
	MilestoneID       *uuid.UUID
	ExternalReference string
	InvoiceURL        string
	TransactionID     string
	FailureReason     string
	PaidAt            *time.Time
	CreatedAt         time.Time
}

// PaymentDetails is the escrow ledger of a customization request
type PaymentDetails struct {
	PaymentType          PaymentType
	TotalAmount          decimal.Decimal
	PaidAmount           decimal.Decimal
	RemainingAmount      decimal.Decimal
	PaymentStatus        LedgerStatus
	EscrowStatus         EscrowStatus
	DesignerPayoutAmount decimal.Decimal
	ShopPayoutAmount     decimal.Decimal
	Milestones           []Milestone
	Payments             []PaymentRecord
}

// Balanced reports whether paid + remaining equals total and the payout
// partition covers the total
func (d *PaymentDetails) Balanced() bool {
	return d.PaidAmount.Add(d.RemainingAmount).Equal(d.TotalAmount) &&
		d.DesignerPayoutAmount.Add(d.ShopPayoutAmount).Equal(d.TotalAmount)
}

// FindMilestone returns the milestone with the given ID
func (d *PaymentDetails) FindMilestone(id uuid.UUID) *Milestone {
	for i := range d.Milestones {
		if d.Milestones[i].ID == id {
			return &d.Milestones[i]
		}
	}
	return nil
}

// FindPayment returns the payment record with the given gateway ID
func (d *PaymentDetails) FindPayment(id string) *PaymentRecord {
	for i := range d.Payments {
		if d.Payments[i].ID == id {
			return &d.Payments[i]
		}
	}
	return nil
}

// FindPaymentByReference returns the payment record created for an external reference
func (d *PaymentDetails) FindPaymentByReference(ref string) *PaymentRecord {
	if ref == "" {
		return nil
	}
	for i := range d.Payments {
		if d.Payments[i].ExternalReference == ref {
			return &d.Payments[i]
		}
	}
	return nil
}

// HasSettledPayments reports whether any payment is pending or succeeded
func (d *PaymentDetails) HasSettledPayments() bool {
	for _, p := range d.Payments {
		if p.Status != PaymentRecordFailed {
			return true
		}
	}
	return false
}

// ValidatePaymentAmount checks a requested payment against the ledger
func (d *PaymentDetails) ValidatePaymentAmount(amount decimal.Decimal, milestoneID *uuid.UUID) error {
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeValidation, "Payment amount must be greater than zero")
	}
	if amount.GreaterThan(d.RemainingAmount) {
		return shared.NewDomainError(shared.CodeValidation,
			"Payment amount exceeds remaining balance of "+d.RemainingAmount.StringFixed(2))
	}
	if milestoneID == nil {
		if d.PaymentType == PaymentTypeMilestone {
			return shared.NewDomainError(shared.CodeValidation, "Milestone is required for milestone payments")
		}
		return nil
	}
	if d.PaymentType != PaymentTypeMilestone {
		return shared.NewDomainError(shared.CodeValidation, "Pricing has no milestones")
	}
	m := d.FindMilestone(*milestoneID)
	if m == nil {
		return shared.NewDomainError(shared.CodeValidation, "Milestone not found")
	}
	if m.IsPaid {
		return shared.NewDomainError(shared.CodeValidation, "Milestone is already paid")
	}
	if !m.Amount.Equal(amount) {
		return shared.NewDomainError(shared.CodeValidation,
			"Payment amount must equal the milestone amount of "+m.Amount.StringFixed(2))
	}
	return nil
}

// PaymentOutcome classifies what a reconciliation event did to the ledger
type PaymentOutcome string

const (
	// OutcomeApplied means the event changed persisted state
	OutcomeApplied PaymentOutcome = "applied"
	// OutcomeDuplicate means the state already reflects the event
	OutcomeDuplicate PaymentOutcome = "duplicate"
	// OutcomeIgnored means the event arrived out of order and must not move state backward
	OutcomeIgnored PaymentOutcome = "ignored"
	// OutcomeDiscrepancy means the event contradicts the ledger and needs an operator
	OutcomeDiscrepancy PaymentOutcome = "discrepancy"
)

// PaymentResult describes the effect of one reconciliation event
type PaymentResult struct {
	Outcome     PaymentOutcome
	Reason      string
	MilestoneID *uuid.UUID
	Amount      decimal.Decimal
}

// confirm settles a pending invoice. Amount equality is checked for
// duplicates as well as for first application.
func (d *PaymentDetails) confirm(paymentID string, amount decimal.Decimal, transactionID string, paidAt time.Time) (PaymentResult, error) {
	rec := d.FindPayment(paymentID)
	if rec == nil {
		return PaymentResult{}, shared.NewDomainError(shared.CodeNotFound, "Payment "+paymentID+" not found")
	}
	result := PaymentResult{Amount: amount, MilestoneID: rec.MilestoneID}

	if rec.Status == PaymentRecordSuccess {
		if rec.Amount.Equal(amount) {
			result.Outcome = OutcomeDuplicate
			return result, nil
		}
		result.Outcome = OutcomeDiscrepancy
		result.Reason = "payment already confirmed with amount " + rec.Amount.String() + ", event reports " + amount.String()
		return result, nil
	}
	if !rec.Amount.Equal(amount) {
		result.Outcome = OutcomeDiscrepancy
		result.Reason = "invoice amount " + rec.Amount.String() + " does not match paid amount " + amount.String()
		return result, nil
	}
	if amount.GreaterThan(d.RemainingAmount) {
		result.Outcome = OutcomeDiscrepancy
		result.Reason = "paid amount " + amount.String() + " exceeds remaining balance " + d.RemainingAmount.String()
		return result, nil
	}

	var milestone *Milestone
	switch {
	case rec.MilestoneID != nil:
		milestone = d.FindMilestone(*rec.MilestoneID)
		if milestone == nil || milestone.IsPaid {
			result.Outcome = OutcomeDiscrepancy
			result.Reason = "milestone " + rec.MilestoneID.String() + " is missing or already paid"
			return result, nil
		}
	case d.PaymentType == PaymentTypeMilestone:
		milestone = d.firstUnpaidMilestoneWithAmount(amount)
		if milestone == nil {
			result.Outcome = OutcomeDiscrepancy
			result.Reason = "paid amount " + amount.String() + " matches no unpaid milestone"
			return result, nil
		}
	}

	if milestone != nil {
		milestone.IsPaid = true
		milestone.PaidAt = &paidAt
		milestone.PaymentID = paymentID
		id := milestone.ID
		result.MilestoneID = &id
	}

	rec.Status = PaymentRecordSuccess
	rec.PaidAt = &paidAt
	rec.TransactionID = transactionID
	rec.FailureReason = ""

	d.PaidAmount = d.PaidAmount.Add(amount)
	d.RemainingAmount = d.RemainingAmount.Sub(amount)
	if d.RemainingAmount.IsZero() {
		d.PaymentStatus = LedgerStatusFullyPaid
	} else {
		d.PaymentStatus = LedgerStatusPartiallyPaid
	}

	result.Outcome = OutcomeApplied
	return result, nil
}

// fail marks a pending invoice as failed; ledger totals are untouched
func (d *PaymentDetails) fail(paymentID, reason string) (PaymentResult, error) {
	rec := d.FindPayment(paymentID)
	if rec == nil {
		return PaymentResult{}, shared.NewDomainError(shared.CodeNotFound, "Payment "+paymentID+" not found")
	}
	result := PaymentResult{Amount: rec.Amount, MilestoneID: rec.MilestoneID}

	switch rec.Status {
	case PaymentRecordFailed:
		result.Outcome = OutcomeDuplicate
	case PaymentRecordSuccess:
		result.Outcome = OutcomeIgnored
		result.Reason = "payment already succeeded"
	default:
		rec.Status = PaymentRecordFailed
		rec.FailureReason = reason
		result.Outcome = OutcomeApplied
	}
	return result, nil
}

func (d *PaymentDetails) firstUnpaidMilestoneWithAmount(amount decimal.Decimal) *Milestone {
	for i := range d.Milestones {
		if !d.Milestones[i].IsPaid && d.Milestones[i].Amount.Equal(amount) {
			return &d.Milestones[i]
		}
	}
	return nil
}
