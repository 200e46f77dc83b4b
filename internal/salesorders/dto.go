package salesorders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

// PromoteResult reports the sales order linked to a draft.
type PromoteResult struct {
	DraftOrder string `json:"ex_commerce_order"`
	SalesOrder string `json:"sales_order"`
	Created    bool   `json:"created"`
}

// Status describes whether a draft has been promoted.
type Status struct {
	DraftOrder    string             `json:"ex_commerce_order"`
	HasSalesOrder bool               `json:"has_sales_order"`
	SalesOrder    *string            `json:"sales_order"`
	Status        *enums.OrderStatus `json:"status"`
	GrandTotal    *decimal.Decimal   `json:"grand_total"`
}
