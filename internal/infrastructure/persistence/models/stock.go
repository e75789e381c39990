package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/inventory"
)

// ProductStockModel is the on-hand quantity of a catalog product.
type ProductStockModel struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	SKU       string    `gorm:"type:varchar(100);index"`
	Name      string    `gorm:"type:varchar(200)"`
	Quantity  int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductStockModel) TableName() string {
	return "product_stocks"
}

// ToDomain converts the persistence model to a domain ProductStock.
func (m *ProductStockModel) ToDomain() *inventory.ProductStock {
	return &inventory.ProductStock{
		ProductID: m.ProductID,
		SKU:       m.SKU,
		Name:      m.Name,
		Quantity:  m.Quantity,
		UpdatedAt: m.UpdatedAt,
	}
}

// ProductStockModelFromDomain creates a persistence model from a domain ProductStock.
func ProductStockModelFromDomain(s *inventory.ProductStock) *ProductStockModel {
	return &ProductStockModel{
		ProductID: s.ProductID,
		SKU:       s.SKU,
		Name:      s.Name,
		Quantity:  s.Quantity,
		UpdatedAt: s.UpdatedAt,
	}
}

// StockMovementModel records one change of on-hand quantity.
type StockMovementModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderID   *uuid.UUID `gorm:"type:uuid;index"`
	Quantity  int        `gorm:"not null"`
	Reason    string     `gorm:"type:varchar(30);not null"`
	CreatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() inventory.StockMovement {
	return inventory.StockMovement{
		ID:        m.ID,
		ProductID: m.ProductID,
		OrderID:   m.OrderID,
		Quantity:  m.Quantity,
		Reason:    inventory.MovementReason(m.Reason),
		CreatedAt: m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:        mv.ID,
		ProductID: mv.ProductID,
		OrderID:   mv.OrderID,
		Quantity:  mv.Quantity,
		Reason:    string(mv.Reason),
		CreatedAt: mv.CreatedAt,
	}
}
