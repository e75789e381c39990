package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/finance"
)

// PaymentReferenceModel indexes gateway payment IDs to orders and customizations.
type PaymentReferenceModel struct {
	GatewayPaymentID  string    `gorm:"type:varchar(100);primaryKey"`
	OwnerID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerType         string    `gorm:"type:varchar(20);not null;index"`
	ExternalReference string    `gorm:"type:varchar(200);not null;index"`
	CreatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentReferenceModel) TableName() string {
	return "payment_references"
}

// ToDomain converts the persistence model to a domain PaymentReference.
func (m *PaymentReferenceModel) ToDomain() finance.PaymentReference {
	return finance.PaymentReference{
		GatewayPaymentID:  m.GatewayPaymentID,
		OwnerType:         finance.OwnerType(m.OwnerType),
		OwnerID:           m.OwnerID,
		ExternalReference: m.ExternalReference,
		CreatedAt:         m.CreatedAt,
	}
}

// PaymentReferenceModelFromDomain creates a persistence model from a domain PaymentReference.
func PaymentReferenceModelFromDomain(ref finance.PaymentReference) PaymentReferenceModel {
	return PaymentReferenceModel{
		GatewayPaymentID:  ref.GatewayPaymentID,
		OwnerID:           ref.OwnerID,
		OwnerType:         string(ref.OwnerType),
		ExternalReference: ref.ExternalReference,
		CreatedAt:         ref.CreatedAt,
	}
}
