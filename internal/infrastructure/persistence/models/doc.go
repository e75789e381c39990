// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel (version column for optimistic locking)
//   - order.go: orders, with line items in a JSON column
//   - customization.go: customization_requests, with pricing and the escrow ledger in JSON columns
//   - payment_reference.go: gateway payment ID index
//   - stock.go: product_stocks and stock_movements
//   - activity_log.go: append-only activity_logs
package models
