package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/inventory"
	"github.com/printmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockRepository implements inventory.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindByProductID finds the stock row of a product
func (r *GormStockRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*inventory.ProductStock, error) {
	var model models.ProductStockModel
	if err := r.db.WithContext(ctx).First(&model, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a stock row
func (r *GormStockRepository) Save(ctx context.Context, stock *inventory.ProductStock) error {
	if stock.UpdatedAt.IsZero() {
		stock.UpdatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Save(models.ProductStockModelFromDomain(stock)).Error
}

// Decrement lowers on-hand quantity with a conditional UPDATE so concurrent
// decrements can never drive stock negative, and records the movement in
// the same transaction.
func (r *GormStockRepository) Decrement(ctx context.Context, movement inventory.StockMovement) error {
	quantity := -movement.Quantity
	if quantity <= 0 {
		return inventory.ErrInvalidQuantity
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProductStockModel{}).
			Where("product_id = ? AND quantity >= ?", movement.ProductID, quantity).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity - ?", quantity),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.ProductStockModel{}).
				Where("product_id = ?", movement.ProductID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return inventory.ErrProductNotFound
			}
			return inventory.ErrInsufficientStock
		}

		return tx.Create(models.StockMovementModelFromDomain(movement)).Error
	})
}

// FindMovementsByOrder returns the movements recorded for an order
func (r *GormStockRepository) FindMovementsByOrder(ctx context.Context, orderID uuid.UUID) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	movements := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		movements[i] = rows[i].ToDomain()
	}
	return movements, nil
}
