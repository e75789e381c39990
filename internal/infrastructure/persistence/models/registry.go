package models

// All returns every persistence model, in dependency order.
// SQL migrations own the production schema; this list drives AutoMigrate in tests.
func All() []any {
	return []any{
		&OrderModel{},
		&CustomizationRequestModel{},
		&PaymentReferenceModel{},
		&ProductStockModel{},
		&StockMovementModel{},
		&ActivityLogModel{},
	}
}
