package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a catalog entry. Templates carry HasVariants; variants point at their template via VariantOf.
type Item struct {
	ItemCode    string    `gorm:"column:item_code;primaryKey"`
	ItemName    string    `gorm:"column:item_name;not null"`
	ItemGroup   string    `gorm:"column:item_group;not null;index"`
	Brand       *string   `gorm:"column:brand"`
	Description *string   `gorm:"column:description"`
	Image       *string   `gorm:"column:image"`
	StockUOM    string    `gorm:"column:stock_uom;not null"`
	Disabled    bool      `gorm:"column:disabled;not null"`
	IsSalesItem bool      `gorm:"column:is_sales_item;not null"`
	HasVariants bool      `gorm:"column:has_variants;not null"`
	VariantOf   *string   `gorm:"column:variant_of;index"`
	Modified    time.Time `gorm:"column:modified;autoUpdateTime"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ItemPrice is a price list rate for an item.
type ItemPrice struct {
	ID            string          `gorm:"column:id;primaryKey"`
	ItemCode      string          `gorm:"column:item_code;not null;index"`
	PriceList     string          `gorm:"column:price_list;not null"`
	PriceListRate decimal.Decimal `gorm:"column:price_list_rate;type:numeric(18,6);not null"`
	Selling       bool            `gorm:"column:selling;not null"`
	Modified      time.Time       `gorm:"column:modified;autoUpdateTime"`
}

func (p *ItemPrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
