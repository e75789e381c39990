package persistence

import (
	"context"

	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentReferenceRepository implements finance.PaymentReferenceRepository using GORM
type GormPaymentReferenceRepository struct {
	db *gorm.DB
}

// NewGormPaymentReferenceRepository creates a new GormPaymentReferenceRepository
func NewGormPaymentReferenceRepository(db *gorm.DB) *GormPaymentReferenceRepository {
	return &GormPaymentReferenceRepository{db: db}
}

// SaveAll inserts index rows; rows already present are left untouched
func (r *GormPaymentReferenceRepository) SaveAll(ctx context.Context, refs []finance.PaymentReference) error {
	if len(refs) == 0 {
		return nil
	}
	rows := make([]models.PaymentReferenceModel, len(refs))
	for i, ref := range refs {
		rows[i] = models.PaymentReferenceModelFromDomain(ref)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// FindByGatewayPaymentID returns every owner of a gateway payment
func (r *GormPaymentReferenceRepository) FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) ([]finance.PaymentReference, error) {
	var rows []models.PaymentReferenceModel
	if err := r.db.WithContext(ctx).
		Where("gateway_payment_id = ?", gatewayPaymentID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	refs := make([]finance.PaymentReference, len(rows))
	for i := range rows {
		refs[i] = rows[i].ToDomain()
	}
	return refs, nil
}
