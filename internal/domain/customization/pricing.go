package customization

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentType selects how the customer settles the agreed total
type PaymentType string

const (
	PaymentTypeFull      PaymentType = "full"
	PaymentTypeMilestone PaymentType = "milestone"
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeFull || t == PaymentTypeMilestone
}

// MilestoneInput describes one milestone proposed by the designer
type MilestoneInput struct {
	Description string
	Amount      decimal.Decimal
}

// PricingInput is the designer's pricing proposal
type PricingInput struct {
	DesignFee    decimal.Decimal
	ProductCost  decimal.Decimal
	PrintingCost decimal.Decimal
	PaymentType  PaymentType
	Milestones   []MilestoneInput
}

// Total returns the sum of all fees
func (p PricingInput) Total() decimal.Decimal {
	return p.DesignFee.Add(p.ProductCost).Add(p.PrintingCost)
}

// Validate checks fees and, for milestone payment, that milestones cover the total exactly
func (p PricingInput) Validate() error {
	if p.DesignFee.IsNegative() || p.ProductCost.IsNegative() || p.PrintingCost.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Fees cannot be negative")
	}
	if !p.Total().IsPositive() {
		return shared.NewDomainError(shared.CodeValidation, "Total cost must be greater than zero")
	}
	if !p.PaymentType.IsValid() {
		return shared.NewDomainError(shared.CodeValidation, "Payment type must be full or milestone")
	}
	if p.PaymentType == PaymentTypeFull {
		if len(p.Milestones) > 0 {
			return shared.NewDomainError(shared.CodeValidation, "Milestones are only allowed for milestone payment")
		}
		return nil
	}

	if len(p.Milestones) == 0 {
		return shared.NewDomainError(shared.CodeValidation, "Milestone payment requires at least one milestone")
	}
	sum := decimal.Zero
	for _, m := range p.Milestones {
		if m.Description == "" {
			return shared.NewDomainError(shared.CodeValidation, "Milestone description cannot be empty")
		}
		if !m.Amount.IsPositive() {
			return shared.NewDomainError(shared.CodeValidation, "Milestone amount must be greater than zero")
		}
		sum = sum.Add(m.Amount)
	}
	if !sum.Equal(p.Total()) {
		return shared.NewDomainError(shared.CodeValidation,
			"Milestone amounts must add up to the total cost of "+p.Total().StringFixed(2))
	}
	return nil
}

// PricingAgreement is the negotiated price of a customization request.
// It is replaced wholesale by a new proposal and frozen once both parties agreed.
type PricingAgreement struct {
	DesignFee        decimal.Decimal
	ProductCost      decimal.Decimal
	PrintingCost     decimal.Decimal
	TotalCost        decimal.Decimal
	AgreedByDesigner bool
	AgreedByCustomer bool
	AgreedAt         *time.Time
	RejectionReason  string
	ProposedAt       time.Time
}

// IsFullyAgreed reports whether both parties accepted the agreement
func (a *PricingAgreement) IsFullyAgreed() bool {
	return a != nil && a.AgreedByDesigner && a.AgreedByCustomer
}

func newPricingAgreement(in PricingInput, now time.Time) *PricingAgreement {
	return &PricingAgreement{
		DesignFee:        in.DesignFee,
		ProductCost:      in.ProductCost,
		PrintingCost:     in.PrintingCost,
		TotalCost:        in.Total(),
		AgreedByDesigner: true,
		ProposedAt:       now,
	}
}

func newPaymentDetails(in PricingInput) *PaymentDetails {
	total := in.Total()
	details := &PaymentDetails{
		PaymentType:          in.PaymentType,
		TotalAmount:          total,
		PaidAmount:           decimal.Zero,
		RemainingAmount:      total,
		PaymentStatus:        LedgerStatusPending,
		EscrowStatus:         EscrowStatusHeld,
		DesignerPayoutAmount: in.DesignFee,
		ShopPayoutAmount:     in.ProductCost.Add(in.PrintingCost),
		Milestones:           make([]Milestone, 0, len(in.Milestones)),
		Payments:             make([]PaymentRecord, 0),
	}
	for _, m := range in.Milestones {
		details.Milestones = append(details.Milestones, Milestone{
			ID:          uuid.New(),
			Description: m.Description,
			Amount:      m.Amount,
		})
	}
	return details
}
