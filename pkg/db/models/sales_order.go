package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

// SalesOrder is the native order produced from a submitted draft order.
type SalesOrder struct {
	Name                 string            `gorm:"column:name;primaryKey"`
	Status               enums.OrderStatus `gorm:"column:status;not null"`
	SourceDraftOrder     string            `gorm:"column:source_draft_order;not null;uniqueIndex"`
	Customer             string            `gorm:"column:customer;not null;index"`
	CustomerName         string            `gorm:"column:customer_name;not null"`
	Company              string            `gorm:"column:company;not null"`
	Currency             string            `gorm:"column:currency;not null"`
	ConversionRate       decimal.Decimal   `gorm:"column:conversion_rate;type:numeric(18,9);not null"`
	SellingPriceList     string            `gorm:"column:selling_price_list;not null"`
	PlcConversionRate    decimal.Decimal   `gorm:"column:plc_conversion_rate;type:numeric(18,9);not null"`
	OrderType            string            `gorm:"column:order_type;not null"`
	TransactionDate      time.Time         `gorm:"column:transaction_date;type:date;not null"`
	DeliveryDate         time.Time         `gorm:"column:delivery_date;type:date;not null"`
	PoNo                 *string           `gorm:"column:po_no"`
	PoDate               *time.Time        `gorm:"column:po_date;type:date"`
	SetWarehouse         *string           `gorm:"column:set_warehouse"`
	CustomerAddress      *string           `gorm:"column:customer_address"`
	ShippingAddressName  *string           `gorm:"column:shipping_address_name"`
	TotalQty             decimal.Decimal   `gorm:"column:total_qty;type:numeric(18,6);not null"`
	Total                decimal.Decimal   `gorm:"column:total;type:numeric(18,6);not null"`
	NetTotal             decimal.Decimal   `gorm:"column:net_total;type:numeric(18,6);not null"`
	TotalTaxesAndCharges decimal.Decimal   `gorm:"column:total_taxes_and_charges;type:numeric(18,6);not null"`
	GrandTotal           decimal.Decimal   `gorm:"column:grand_total;type:numeric(18,6);not null"`
	Items                []SalesOrderItem  `gorm:"foreignKey:Parent;references:Name;constraint:OnDelete:CASCADE"`
	Taxes                []SalesOrderTax   `gorm:"foreignKey:Parent;references:Name;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

type SalesOrderItem struct {
	ID               string          `gorm:"column:id;primaryKey"`
	Parent           string          `gorm:"column:parent;not null;index"`
	Idx              int             `gorm:"column:idx;not null"`
	ItemCode         string          `gorm:"column:item_code;not null"`
	ItemName         string          `gorm:"column:item_name;not null"`
	Qty              int             `gorm:"column:qty;not null"`
	Rate             decimal.Decimal `gorm:"column:rate;type:numeric(18,6);not null"`
	Amount           decimal.Decimal `gorm:"column:amount;type:numeric(18,6);not null"`
	UOM              string          `gorm:"column:uom;not null"`
	StockUOM         string          `gorm:"column:stock_uom;not null"`
	ConversionFactor decimal.Decimal `gorm:"column:conversion_factor;type:numeric(18,9);not null"`
	Warehouse        *string         `gorm:"column:warehouse"`
	DeliveryDate     time.Time       `gorm:"column:delivery_date;type:date;not null"`
}

type SalesOrderTax struct {
	ID          string          `gorm:"column:id;primaryKey"`
	Parent      string          `gorm:"column:parent;not null;index"`
	Idx         int             `gorm:"column:idx;not null"`
	ChargeType  string          `gorm:"column:charge_type;not null"`
	AccountHead string          `gorm:"column:account_head;not null"`
	Description string          `gorm:"column:description;not null"`
	Rate        decimal.Decimal `gorm:"column:rate;type:numeric(18,6);not null"`
	TaxAmount   decimal.Decimal `gorm:"column:tax_amount;type:numeric(18,6);not null"`
}

func (i *SalesOrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (t *SalesOrderTax) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
