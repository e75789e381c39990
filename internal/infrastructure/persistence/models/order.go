package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderItemData is the JSON shape of one order line
type OrderItemData struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	CustomerID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	BusinessOwnerID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	Items            []OrderItemData     `gorm:"type:jsonb;serializer:json;not null"`
	TotalAmount      decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	OrderStatus      trade.OrderStatus   `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentStatus    trade.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentMethod    string              `gorm:"type:varchar(50)"`
	PaymentReference string              `gorm:"type:varchar(100);index"`
	PaymentURL       string              `gorm:"type:text"`
	PaidAt           *time.Time
	FailureReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *trade.Order {
	items := make([]trade.OrderItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = trade.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}
	return &trade.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CustomerID:        m.CustomerID,
		BusinessOwnerID:   m.BusinessOwnerID,
		Items:             items,
		TotalAmount:       m.TotalAmount,
		OrderStatus:       m.OrderStatus,
		PaymentStatus:     m.PaymentStatus,
		PaymentMethod:     m.PaymentMethod,
		PaymentReference:  m.PaymentReference,
		PaymentURL:        m.PaymentURL,
		PaidAt:            m.PaidAt,
		FailureReason:     m.FailureReason,
	}
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.CustomerID = o.CustomerID
	m.BusinessOwnerID = o.BusinessOwnerID
	m.Items = make([]OrderItemData, len(o.Items))
	for i, it := range o.Items {
		m.Items[i] = OrderItemData{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}
	m.TotalAmount = o.TotalAmount
	m.OrderStatus = o.OrderStatus
	m.PaymentStatus = o.PaymentStatus
	m.PaymentMethod = o.PaymentMethod
	m.PaymentReference = o.PaymentReference
	m.PaymentURL = o.PaymentURL
	m.PaidAt = o.PaidAt
	m.FailureReason = o.FailureReason
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
