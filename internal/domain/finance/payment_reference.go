package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OwnerType names the kind of record a gateway payment belongs to
type OwnerType string

const (
	OwnerTypeOrder         OwnerType = "order"
	OwnerTypeCustomization OwnerType = "customization"
)

// PaymentReference indexes a gateway payment ID to an owning record.
// A batched invoice has one row per order.
type PaymentReference struct {
	GatewayPaymentID  string
	OwnerType         OwnerType
	OwnerID           uuid.UUID
	ExternalReference string
	CreatedAt         time.Time
}

// NewPaymentReferences builds index rows for every owner of one gateway payment
func NewPaymentReferences(gatewayPaymentID, externalReference string, ownerType OwnerType, ownerIDs ...uuid.UUID) []PaymentReference {
	now := time.Now()
	refs := make([]PaymentReference, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		refs = append(refs, PaymentReference{
			GatewayPaymentID:  gatewayPaymentID,
			OwnerType:         ownerType,
			OwnerID:           id,
			ExternalReference: externalReference,
			CreatedAt:         now,
		})
	}
	return refs
}

// PaymentReferenceRepository persists the gateway payment index
type PaymentReferenceRepository interface {
	// SaveAll inserts index rows, ignoring rows that already exist
	SaveAll(ctx context.Context, refs []PaymentReference) error

	// FindByGatewayPaymentID returns all owners of a gateway payment
	FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) ([]PaymentReference, error)
}
