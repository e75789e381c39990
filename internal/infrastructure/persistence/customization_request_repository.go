package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomizationRequestRepository implements customization.RequestRepository using GORM
type GormCustomizationRequestRepository struct {
	db *gorm.DB
}

// NewGormCustomizationRequestRepository creates a new GormCustomizationRequestRepository
func NewGormCustomizationRequestRepository(db *gorm.DB) *GormCustomizationRequestRepository {
	return &GormCustomizationRequestRepository{db: db}
}

// FindByID finds a customization request by its ID
func (r *GormCustomizationRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*customization.CustomizationRequest, error) {
	var model models.CustomizationRequestModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a customization request
func (r *GormCustomizationRequestRepository) Save(ctx context.Context, request *customization.CustomizationRequest) error {
	return r.db.WithContext(ctx).Save(models.CustomizationRequestModelFromDomain(request)).Error
}

// SaveWithLock writes the mutable columns only if the stored version is
// still the one the request was loaded with. The pricing agreement and the
// escrow ledger are written as whole JSON documents.
func (r *GormCustomizationRequestRepository) SaveWithLock(ctx context.Context, request *customization.CustomizationRequest) error {
	expected := request.Version
	request.UpdatedAt = time.Now()

	model := models.CustomizationRequestModelFromDomain(request)
	model.Version = expected + 1

	result := r.db.WithContext(ctx).
		Model(model).
		Where("version = ?", expected).
		Select("status", "printing_shop_id", "pricing", "payment", "version", "updated_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrentModification, "The customization request has been modified by another transaction")
	}
	request.Version = expected + 1
	return nil
}
