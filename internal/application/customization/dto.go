package customization

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printmarket/backend/internal/domain/customization"
)

// ========== Request DTOs ==========

// CreatePricingRequest is the designer's pricing proposal
type CreatePricingRequest struct {
	DesignFee    decimal.Decimal    `json:"design_fee"`
	ProductCost  decimal.Decimal    `json:"product_cost"`
	PrintingCost decimal.Decimal    `json:"printing_cost"`
	PaymentType  string             `json:"payment_type" binding:"required,oneof=full milestone"`
	Milestones   []MilestoneRequest `json:"milestones" binding:"omitempty,dive"`
}

// MilestoneRequest is one proposed milestone
type MilestoneRequest struct {
	Description string          `json:"description" binding:"required,max=255"`
	Amount      decimal.Decimal `json:"amount"`
}

// RejectPricingRequest carries the customer's reason for rejecting pricing
type RejectPricingRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// ProcessPaymentRequest opens an invoice against the escrow ledger
type ProcessPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" binding:"omitempty,max=50"`
	MilestoneID   *uuid.UUID      `json:"milestone_id"`
	PayerEmail    string          `json:"payer_email" binding:"omitempty,email"`
}

func (r CreatePricingRequest) toInput() customization.PricingInput {
	in := customization.PricingInput{
		DesignFee:    r.DesignFee,
		ProductCost:  r.ProductCost,
		PrintingCost: r.PrintingCost,
		PaymentType:  customization.PaymentType(r.PaymentType),
	}
	for _, m := range r.Milestones {
		in.Milestones = append(in.Milestones, customization.MilestoneInput{Description: m.Description, Amount: m.Amount})
	}
	return in
}

// ========== Response DTOs ==========

// PricingResponse is the current pricing agreement
type PricingResponse struct {
	DesignFee        decimal.Decimal `json:"design_fee"`
	ProductCost      decimal.Decimal `json:"product_cost"`
	PrintingCost     decimal.Decimal `json:"printing_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	AgreedByDesigner bool            `json:"agreed_by_designer"`
	AgreedByCustomer bool            `json:"agreed_by_customer"`
	AgreedAt         *time.Time      `json:"agreed_at,omitempty"`
	RejectionReason  string          `json:"rejection_reason,omitempty"`
	ProposedAt       time.Time       `json:"proposed_at"`
}

// MilestoneResponse is one milestone of the escrow ledger
type MilestoneResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	IsPaid      bool            `json:"is_paid"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	PaymentID   string          `json:"payment_id,omitempty"`
}

// PaymentRecordResponse is one invoice issued against the ledger
type PaymentRecordResponse struct {
	ID                string          `json:"id"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentMethod     string          `json:"payment_method"`
	Status            string          `json:"status"`
	MilestoneID       *uuid.UUID      `json:"milestone_id,omitempty"`
	ExternalReference string          `json:"external_reference"`
	InvoiceURL        string          `json:"invoice_url,omitempty"`
	TransactionID     string          `json:"transaction_id,omitempty"`
	FailureReason     string          `json:"failure_reason,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// LedgerResponse is the escrow ledger
type LedgerResponse struct {
	PaymentType          string                  `json:"payment_type"`
	TotalAmount          decimal.Decimal         `json:"total_amount"`
	PaidAmount           decimal.Decimal         `json:"paid_amount"`
	RemainingAmount      decimal.Decimal         `json:"remaining_amount"`
	PaymentStatus        string                  `json:"payment_status"`
	EscrowStatus         string                  `json:"escrow_status"`
	DesignerPayoutAmount decimal.Decimal         `json:"designer_payout_amount"`
	ShopPayoutAmount     decimal.Decimal         `json:"shop_payout_amount"`
	Milestones           []MilestoneResponse     `json:"milestones"`
	Payments             []PaymentRecordResponse `json:"payments"`
}

// PaymentDetailsResponse is the pricing and escrow state of a request
type PaymentDetailsResponse struct {
	RequestID uuid.UUID        `json:"request_id"`
	Status    string           `json:"status"`
	Version   int              `json:"version"`
	Pricing   *PricingResponse `json:"pricing,omitempty"`
	Payment   *LedgerResponse  `json:"payment,omitempty"`
}

// ProcessPaymentResponse is the hosted invoice the customer should pay
type ProcessPaymentResponse struct {
	PaymentID         string          `json:"payment_id"`
	InvoiceURL        string          `json:"invoice_url"`
	ExternalReference string          `json:"external_reference"`
	Amount            decimal.Decimal `json:"amount"`
	MilestoneID       *uuid.UUID      `json:"milestone_id,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
}

// ToPaymentDetailsResponse converts a request to its payment view
func ToPaymentDetailsResponse(r *customization.CustomizationRequest) PaymentDetailsResponse {
	resp := PaymentDetailsResponse{
		RequestID: r.ID,
		Status:    r.Status.String(),
		Version:   r.Version,
	}
	if p := r.Pricing; p != nil {
		resp.Pricing = &PricingResponse{
			DesignFee:        p.DesignFee,
			ProductCost:      p.ProductCost,
			PrintingCost:     p.PrintingCost,
			TotalCost:        p.TotalCost,
			AgreedByDesigner: p.AgreedByDesigner,
			AgreedByCustomer: p.AgreedByCustomer,
			AgreedAt:         p.AgreedAt,
			RejectionReason:  p.RejectionReason,
			ProposedAt:       p.ProposedAt,
		}
	}
	if d := r.Payment; d != nil {
		ledger := &LedgerResponse{
			PaymentType:          string(d.PaymentType),
			TotalAmount:          d.TotalAmount,
			PaidAmount:           d.PaidAmount,
			RemainingAmount:      d.RemainingAmount,
			PaymentStatus:        string(d.PaymentStatus),
			EscrowStatus:         string(d.EscrowStatus),
			DesignerPayoutAmount: d.DesignerPayoutAmount,
			ShopPayoutAmount:     d.ShopPayoutAmount,
			Milestones:           make([]MilestoneResponse, 0, len(d.Milestones)),
			Payments:             make([]PaymentRecordResponse, 0, len(d.Payments)),
		}
		for _, m := range d.Milestones {
			ledger.Milestones = append(ledger.Milestones, MilestoneResponse{
				ID:          m.ID,
				Description: m.Description,
				Amount:      m.Amount,
				IsPaid:      m.IsPaid,
				PaidAt:      m.PaidAt,
				PaymentID:   m.PaymentID,
			})
		}
		for _, p := range d.Payments {
			ledger.Payments = append(ledger.Payments, PaymentRecordResponse{
				ID:                p.ID,
				Amount:            p.Amount,
				PaymentMethod:     p.PaymentMethod,
				Status:            string(p.Status),
				MilestoneID:       p.MilestoneID,
				ExternalReference: p.ExternalReference,
				InvoiceURL:        p.InvoiceURL,
				TransactionID:     p.TransactionID,
				FailureReason:     p.FailureReason,
				PaidAt:            p.PaidAt,
				CreatedAt:         p.CreatedAt,
			})
		}
		resp.Payment = ledger
	}
	return resp
}
