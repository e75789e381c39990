package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/domain/trade"
	"github.com/printmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements trade.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds all existing orders among ids
func (r *GormOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*trade.Order, error) {
	if len(ids) == 0 {
		return []*trade.Order{}, nil
	}
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]*trade.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, nil
}

// Save creates or updates an order
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return r.db.WithContext(ctx).Save(models.OrderModelFromDomain(order)).Error
}

// SaveWithLock updates an order with optimistic locking (version check)
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	expected := order.Version
	order.UpdatedAt = time.Now()
	model := models.OrderModelFromDomain(order)

	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, expected).
		Updates(map[string]any{
			"order_status":      model.OrderStatus,
			"payment_status":    model.PaymentStatus,
			"payment_method":    model.PaymentMethod,
			"payment_reference": model.PaymentReference,
			"payment_url":       model.PaymentURL,
			"paid_at":           model.PaidAt,
			"failure_reason":    model.FailureReason,
			"version":           expected + 1,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrentModification, "The order has been modified by another transaction")
	}
	order.Version = expected + 1
	return nil
}
