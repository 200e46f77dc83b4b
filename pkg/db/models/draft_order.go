package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

// ErrItemsFrozen is returned when a line item of a submitted order is written.
var ErrItemsFrozen = errors.New("order items are frozen after submit")

// DraftOrder is the checkout-time order captured from a cart.
type DraftOrder struct {
	Name                 string            `gorm:"column:name;primaryKey"`
	NamingSeries         string            `gorm:"column:naming_series;not null"`
	Status               enums.OrderStatus `gorm:"column:status;not null;index"`
	GuestName            string            `gorm:"column:guest_name;not null"`
	GuestEmail           string            `gorm:"column:guest_email;not null"`
	GuestPhone           string            `gorm:"column:guest_phone;not null;index"`
	GuestBillingAddress  *string           `gorm:"column:guest_billing_address"`
	GuestShippingAddress *string           `gorm:"column:guest_shipping_address"`
	Customer             *string           `gorm:"column:customer;index"`
	CustomerName         *string           `gorm:"column:customer_name"`
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
	Terms                *string           `gorm:"column:terms"`
	TotalQty             decimal.Decimal   `gorm:"column:total_qty;type:numeric(18,6);not null"`
	Total                decimal.Decimal   `gorm:"column:total;type:numeric(18,6);not null"`
	NetTotal             decimal.Decimal   `gorm:"column:net_total;type:numeric(18,6);not null"`
	TotalTaxesAndCharges decimal.Decimal   `gorm:"column:total_taxes_and_charges;type:numeric(18,6);not null"`
	GrandTotal           decimal.Decimal   `gorm:"column:grand_total;type:numeric(18,6);not null"`
	RoundedTotal         decimal.Decimal   `gorm:"column:rounded_total;type:numeric(18,6);not null"`
	SalesOrder           *string           `gorm:"column:sales_order;index"`
	Items                []DraftOrderItem  `gorm:"foreignKey:Parent;references:Name;constraint:OnDelete:CASCADE"`
	Taxes                []DraftOrderTax   `gorm:"foreignKey:Parent;references:Name;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// DraftOrderItem is a line item snapshotted from the cart.
type DraftOrderItem struct {
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
}

// DraftOrderTax is a tax row carried with a draft order.
type DraftOrderTax struct {
	ID          string          `gorm:"column:id;primaryKey"`
	Parent      string          `gorm:"column:parent;not null;index"`
	Idx         int             `gorm:"column:idx;not null"`
	ChargeType  string          `gorm:"column:charge_type;not null"`
	AccountHead string          `gorm:"column:account_head;not null"`
	Description string          `gorm:"column:description;not null"`
	Rate        decimal.Decimal `gorm:"column:rate;type:numeric(18,6);not null"`
	TaxAmount   decimal.Decimal `gorm:"column:tax_amount;type:numeric(18,6);not null"`
}

func (i *DraftOrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return ensureParentEditable(tx, i.Parent)
}

func (i *DraftOrderItem) BeforeUpdate(tx *gorm.DB) error {
	return ensureParentEditable(tx, i.Parent)
}

func (i *DraftOrderItem) BeforeDelete(tx *gorm.DB) error {
	return ensureParentEditable(tx, i.Parent)
}

func (t *DraftOrderTax) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// ensureParentEditable rejects item writes once the owning order left Draft.
// Bulk statements without a loaded parent are not checked.
func ensureParentEditable(tx *gorm.DB, parent string) error {
	if parent == "" {
		return nil
	}
	var status string
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&DraftOrder{}).
		Select("status").
		Where("name = ?", parent).
		Scan(&status).Error
	if err != nil {
		return fmt.Errorf("load parent order status: %w", err)
	}
	if status == "" {
		return fmt.Errorf("parent order %q not found", parent)
	}
	if !enums.OrderStatus(status).ItemsEditable() {
		return ErrItemsFrozen
	}
	return nil
}
