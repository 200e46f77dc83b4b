package models

// All lists the storefront tables in dependency order for gorm AutoMigrate.
func All() []any {
	return []any{
		&Item{},
		&ItemPrice{},
		&Customer{},
		&Contact{},
		&Address{},
		&DynamicLink{},
		&NameSeries{},
		&SalesOrder{},
		&SalesOrderItem{},
		&SalesOrderTax{},
		&DraftOrder{},
		&DraftOrderItem{},
		&DraftOrderTax{},
		&User{},
	}
}
