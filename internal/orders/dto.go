package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

const dateLayout = "2006-01-02"

// Guest defaults applied when checkout omits contact details.
const (
	DefaultGuestName  = "Guest Customer"
	DefaultGuestEmail = "guest@example.com"
	DefaultGuestPhone = "000-000-0000"
)

// CustomerInfo is the contact data supplied at checkout.
type CustomerInfo struct {
	Name  string `json:"name" validate:"omitempty,max=140"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=32,phone"`
}

// IsZero reports whether no customer field was supplied.
func (c *CustomerInfo) IsZero() bool {
	return c == nil || (strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Email) == "" && strings.TrimSpace(c.Phone) == "")
}

// DeliveryInfo is where and how the order should be delivered.
type DeliveryInfo struct {
	Address string `json:"address" validate:"omitempty,max=1000"`
	Phone   string `json:"phone" validate:"omitempty,max=32,phone"`
	Notes   string `json:"notes" validate:"omitempty,max=2000"`
}

// IsZero reports whether no delivery field was supplied.
func (d *DeliveryInfo) IsZero() bool {
	return d == nil || (strings.TrimSpace(d.Address) == "" && strings.TrimSpace(d.Phone) == "" && strings.TrimSpace(d.Notes) == "")
}

// OrderItem is a draft order line as returned to callers.
type OrderItem struct {
	ItemCode string          `json:"item_code"`
	ItemName string          `json:"item_name"`
	Qty      int             `json:"qty"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
	UOM      string          `json:"uom"`
}

// OrderSummary is the order block of the checkout response.
type OrderSummary struct {
	Name            string            `json:"name"`
	Status          enums.OrderStatus `json:"status"`
	Total           decimal.Decimal   `json:"total"`
	GrandTotal      decimal.Decimal   `json:"grand_total"`
	GuestName       string            `json:"guest_name"`
	GuestEmail      string            `json:"guest_email"`
	GuestPhone      string            `json:"guest_phone"`
	Customer        *string           `json:"customer"`
	TransactionDate string            `json:"transaction_date"`
	DeliveryDate    string            `json:"delivery_date"`
	Items           []OrderItem       `json:"items"`
}

// PlaceOrderResult is returned after checkout succeeds.
type PlaceOrderResult struct {
	Message string       `json:"message"`
	Order   OrderSummary `json:"order"`
}

// OrderTax is a tax row of an order.
type OrderTax struct {
	ChargeType  string          `json:"charge_type"`
	AccountHead string          `json:"account_head"`
	Description string          `json:"description"`
	Rate        decimal.Decimal `json:"rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

// OrderDetail is the full view of a draft order.
type OrderDetail struct {
	OrderSummary
	CustomerName         *string         `json:"customer_name"`
	GuestBillingAddress  *string         `json:"guest_billing_address"`
	GuestShippingAddress *string         `json:"guest_shipping_address"`
	Company              string          `json:"company"`
	Currency             string          `json:"currency"`
	SellingPriceList     string          `json:"selling_price_list"`
	Terms                *string         `json:"terms"`
	TotalQty             decimal.Decimal `json:"total_qty"`
	NetTotal             decimal.Decimal `json:"net_total"`
	TotalTaxesAndCharges decimal.Decimal `json:"total_taxes_and_charges"`
	RoundedTotal         decimal.Decimal `json:"rounded_total"`
	SalesOrder           *string         `json:"sales_order"`
	Taxes                []OrderTax      `json:"taxes"`
}

// OrderStatus is the lightweight status view of a draft order.
type OrderStatus struct {
	Name       string            `json:"name"`
	Status     enums.OrderStatus `json:"status"`
	SalesOrder *string           `json:"sales_order"`
	GrandTotal decimal.Decimal   `json:"grand_total"`
	Modified   time.Time         `json:"modified"`
}

// CustomerAssignment reports the customer attached to a draft order.
type CustomerAssignment struct {
	Order        string `json:"order"`
	Customer     string `json:"customer"`
	CustomerName string `json:"customer_name"`
	Created      bool   `json:"created"`
}

func toSummary(o *models.DraftOrder) OrderSummary {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ItemCode: it.ItemCode,
			ItemName: it.ItemName,
			Qty:      it.Qty,
			Rate:     it.Rate,
			Amount:   it.Amount,
			UOM:      it.UOM,
		})
	}
	return OrderSummary{
		Name:            o.Name,
		Status:          o.Status,
		Total:           o.Total,
		GrandTotal:      o.GrandTotal,
		GuestName:       o.GuestName,
		GuestEmail:      o.GuestEmail,
		GuestPhone:      o.GuestPhone,
		Customer:        o.Customer,
		TransactionDate: o.TransactionDate.Format(dateLayout),
		DeliveryDate:    o.DeliveryDate.Format(dateLayout),
		Items:           items,
	}
}

func toDetail(o *models.DraftOrder) *OrderDetail {
	taxes := make([]OrderTax, 0, len(o.Taxes))
	for _, t := range o.Taxes {
		taxes = append(taxes, OrderTax{
			ChargeType:  t.ChargeType,
			AccountHead: t.AccountHead,
			Description: t.Description,
			Rate:        t.Rate,
			TaxAmount:   t.TaxAmount,
		})
	}
	return &OrderDetail{
		OrderSummary:         toSummary(o),
		CustomerName:         o.CustomerName,
		GuestBillingAddress:  o.GuestBillingAddress,
		GuestShippingAddress: o.GuestShippingAddress,
		Company:              o.Company,
		Currency:             o.Currency,
		SellingPriceList:     o.SellingPriceList,
		Terms:                o.Terms,
		TotalQty:             o.TotalQty,
		NetTotal:             o.NetTotal,
		TotalTaxesAndCharges: o.TotalTaxesAndCharges,
		RoundedTotal:         o.RoundedTotal,
		SalesOrder:           o.SalesOrder,
		Taxes:                taxes,
	}
}
