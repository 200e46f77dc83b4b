package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/excommerce-backend/pkg/pagination"
)

// ListParams are the raw listing inputs; the service clamps them.
type ListParams struct {
	Limit    int
	Offset   int
	Search   string
	Category string
}

// PriceRange spans the positive prices of a template's variants.
type PriceRange struct {
	Min          decimal.Decimal `json:"min"`
	Max          decimal.Decimal `json:"max"`
	FormattedMin string          `json:"formatted_min"`
	FormattedMax string          `json:"formatted_max"`
}

// Product is the storefront view of an item.
type Product struct {
	ItemCode       string           `json:"item_code"`
	ItemName       string           `json:"item_name"`
	Description    *string          `json:"description"`
	Image          *string          `json:"image"`
	Category       string           `json:"category"`
	Brand          *string          `json:"brand"`
	StockUOM       string           `json:"stock_uom"`
	Price          *decimal.Decimal `json:"price"`
	FormattedPrice *string          `json:"formatted_price"`
	PriceRange     *PriceRange      `json:"price_range,omitempty"`
	IsTemplate     bool             `json:"is_template"`
	VariantCount   int              `json:"variant_count,omitempty"`
	InStock        bool             `json:"in_stock"`
	Variants       []Variant        `json:"variants,omitempty"`
}

// Variant is a purchasable child of a template product.
type Variant struct {
	ItemCode       string           `json:"item_code"`
	ItemName       string           `json:"item_name"`
	Image          *string          `json:"image"`
	Price          *decimal.Decimal `json:"price"`
	FormattedPrice *string          `json:"formatted_price"`
}

// ProductList is a page of products.
type ProductList struct {
	Products   []Product       `json:"products"`
	Pagination pagination.Info `json:"pagination"`
}

// SellableItem is what the cart needs to add a line.
type SellableItem struct {
	ItemCode  string
	ItemName  string
	ItemGroup string
	StockUOM  string
	Rate      decimal.Decimal
}
