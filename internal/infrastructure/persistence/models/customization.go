package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/shopspring/decimal"
)

// PricingData is the JSON shape of a pricing agreement
type PricingData struct {
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

// MilestoneData is the JSON shape of a milestone
type MilestoneData struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	IsPaid      bool            `json:"is_paid"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	PaymentID   string          `json:"payment_id,omitempty"`
}

// PaymentRecordData is the JSON shape of one invoice entry
type PaymentRecordData struct {
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

// PaymentDetailsData is the JSON shape of the escrow ledger
type PaymentDetailsData struct {
	PaymentType          string              `json:"payment_type"`
	TotalAmount          decimal.Decimal     `json:"total_amount"`
	PaidAmount           decimal.Decimal     `json:"paid_amount"`
	RemainingAmount      decimal.Decimal     `json:"remaining_amount"`
	PaymentStatus        string              `json:"payment_status"`
	EscrowStatus         string              `json:"escrow_status"`
	DesignerPayoutAmount decimal.Decimal     `json:"designer_payout_amount"`
	ShopPayoutAmount     decimal.Decimal     `json:"shop_payout_amount"`
	Milestones           []MilestoneData     `json:"milestones"`
	Payments             []PaymentRecordData `json:"payments"`
}

// CustomizationRequestModel is the persistence model for the CustomizationRequest aggregate root.
type CustomizationRequestModel struct {
	AggregateModel
	CustomerID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	DesignerID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	PrintingShopID *uuid.UUID          `gorm:"type:uuid;index"`
	Title          string              `gorm:"type:varchar(200);not null"`
	Status         string              `gorm:"type:varchar(40);not null"`
	Pricing        *PricingData        `gorm:"type:jsonb;serializer:json"`
	Payment        *PaymentDetailsData `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (CustomizationRequestModel) TableName() string {
	return "customization_requests"
}

// ToDomain converts the persistence model to a domain CustomizationRequest.
func (m *CustomizationRequestModel) ToDomain() *customization.CustomizationRequest {
	r := &customization.CustomizationRequest{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CustomerID:        m.CustomerID,
		DesignerID:        m.DesignerID,
		PrintingShopID:    m.PrintingShopID,
		Title:             m.Title,
		Status:            customization.RequestStatus(m.Status),
	}
	if p := m.Pricing; p != nil {
		r.Pricing = &customization.PricingAgreement{
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
	if d := m.Payment; d != nil {
		details := &customization.PaymentDetails{
			PaymentType:          customization.PaymentType(d.PaymentType),
			TotalAmount:          d.TotalAmount,
			PaidAmount:           d.PaidAmount,
			RemainingAmount:      d.RemainingAmount,
			PaymentStatus:        customization.LedgerStatus(d.PaymentStatus),
			EscrowStatus:         customization.EscrowStatus(d.EscrowStatus),
			DesignerPayoutAmount: d.DesignerPayoutAmount,
			ShopPayoutAmount:     d.ShopPayoutAmount,
			Milestones:           make([]customization.Milestone, len(d.Milestones)),
			Payments:             make([]customization.PaymentRecord, len(d.Payments)),
		}
		for i, ms := range d.Milestones {
			details.Milestones[i] = customization.Milestone{
				ID:          ms.ID,
				Description: ms.Description,
				Amount:      ms.Amount,
				IsPaid:      ms.IsPaid,
				PaidAt:      ms.PaidAt,
				PaymentID:   ms.PaymentID,
			}
		}
		for i, p := range d.Payments {
			details.Payments[i] = customization.PaymentRecord{
				ID:                p.ID,
				Amount:            p.Amount,
				PaymentMethod:     p.PaymentMethod,
				Status:            customization.PaymentRecordStatus(p.Status),
				MilestoneID:       p.MilestoneID,
				ExternalReference: p.ExternalReference,
				InvoiceURL:        p.InvoiceURL,
				TransactionID:     p.TransactionID,
				FailureReason:     p.FailureReason,
				PaidAt:            p.PaidAt,
				CreatedAt:         p.CreatedAt,
			}
		}
		r.Payment = details
	}
	return r
}

// FromDomain populates the persistence model from a domain CustomizationRequest.
func (m *CustomizationRequestModel) FromDomain(r *customization.CustomizationRequest) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.CustomerID = r.CustomerID
	m.DesignerID = r.DesignerID
	m.PrintingShopID = r.PrintingShopID
	m.Title = r.Title
	m.Status = string(r.Status)
	m.Pricing = nil
	m.Payment = nil

	if p := r.Pricing; p != nil {
		m.Pricing = &PricingData{
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
		data := &PaymentDetailsData{
			PaymentType:          string(d.PaymentType),
			TotalAmount:          d.TotalAmount,
			PaidAmount:           d.PaidAmount,
			RemainingAmount:      d.RemainingAmount,
			PaymentStatus:        string(d.PaymentStatus),
			EscrowStatus:         string(d.EscrowStatus),
			DesignerPayoutAmount: d.DesignerPayoutAmount,
			ShopPayoutAmount:     d.ShopPayoutAmount,
			Milestones:           make([]MilestoneData, len(d.Milestones)),
			Payments:             make([]PaymentRecordData, len(d.Payments)),
		}
		for i, ms := range d.Milestones {
			data.Milestones[i] = MilestoneData{
				ID:          ms.ID,
				Description: ms.Description,
				Amount:      ms.Amount,
				IsPaid:      ms.IsPaid,
				PaidAt:      ms.PaidAt,
				PaymentID:   ms.PaymentID,
			}
		}
		for i, p := range d.Payments {
			data.Payments[i] = PaymentRecordData{
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
			}
		}
		m.Payment = data
	}
}

// CustomizationRequestModelFromDomain creates a new persistence model from a domain request.
func CustomizationRequestModelFromDomain(r *customization.CustomizationRequest) *CustomizationRequestModel {
	m := &CustomizationRequestModel{}
	m.FromDomain(r)
	return m
}
