package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/internal/cart"
	"github.com/angelmondragon/excommerce-backend/internal/customers"
	"github.com/angelmondragon/excommerce-backend/internal/identity"
	"github.com/angelmondragon/excommerce-backend/internal/naming"
	"github.com/angelmondragon/excommerce-backend/pkg/config"
	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
	"github.com/angelmondragon/excommerce-backend/pkg/metrics"
)

const (
	orderTypeSales = "Sales"
	defaultUOM     = "Nos"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartDrainer interface {
	Drain(ctx context.Context, id identity.Identity, fn func(items []cart.LineItem) error) error
}

// Service assembles draft orders from carts and serves order reads.
type Service interface {
	PlaceOrder(ctx context.Context, id identity.Identity, customer *CustomerInfo, delivery *DeliveryInfo) (*PlaceOrderResult, error)
	Get(ctx context.Context, name string) (*OrderDetail, error)
	Status(ctx context.Context, name string) (*OrderStatus, error)
	AssignGuestCustomer(ctx context.Context, name string) (*CustomerAssignment, error)
}

// Deps wires the order service.
type Deps struct {
	Repo      Repository
	Tx        txRunner
	Cart      cartDrainer
	Customers customers.Service
	Names     naming.Generator
	Checkout  config.CheckoutConfig
	Metrics   *metrics.StorefrontMetrics
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	cart      cartDrainer
	customers customers.Service
	names     naming.Generator
	checkout  config.CheckoutConfig
	metrics   *metrics.StorefrontMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if deps.Customers == nil {
		return nil, fmt.Errorf("customer service required")
	}
	if deps.Names == nil {
		return nil, fmt.Errorf("name generator required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	checkout := deps.Checkout
	if strings.TrimSpace(checkout.NamingSeries) == "" {
		checkout.NamingSeries = "EXC-ORD-.YYYY.-"
	}
	if checkout.DeliveryLeadDays <= 0 {
		checkout.DeliveryLeadDays = 7
	}
	return &service{
		repo:      deps.Repo,
		tx:        deps.Tx,
		cart:      deps.Cart,
		customers: deps.Customers,
		names:     deps.Names,
		checkout:  checkout,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		now:       time.Now,
	}, nil
}

// PlaceOrder turns the caller's cart into a submitted draft order. The
// customer, the order and its submission commit together; the cart is cleared
// only after that commit.
func (s *service) PlaceOrder(ctx context.Context, id identity.Identity, customer *CustomerInfo, delivery *DeliveryInfo) (*PlaceOrderResult, error) {
	started := s.now()
	defer func() { s.metrics.ObservePlaceOrder(time.Since(started)) }()

	if customer.IsZero() {
		s.metrics.IncOrderFailed("validation")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Customer information is required")
	}
	if delivery.IsZero() {
		s.metrics.IncOrderFailed("validation")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Delivery information is required")
	}

	ctx = s.logg.WithCartID(ctx, string(id.Kind), id.Key)

	var placed *models.DraftOrder
	err := s.cart.Drain(ctx, id, func(items []cart.LineItem) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			order, err := s.assemble(ctx, tx, items, customer, delivery)
			if err != nil {
				return err
			}
			if err := s.insertAndSubmit(ctx, tx, order); err != nil {
				return err
			}
			placed = order
			return nil
		})
	})
	if err != nil && !cart.IsClearError(err) {
		s.metrics.IncOrderFailed(failureReason(err))
		return nil, err
	}
	if err != nil {
		s.logg.Error(s.logg.WithOrderName(ctx, placed.Name), "orders.cart_clear_failed", err)
	}

	s.metrics.IncOrderPlaced()
	s.logg.Info(s.logg.WithOrderName(ctx, placed.Name), "orders.placed")
	return &PlaceOrderResult{
		Message: "Order created successfully",
		Order:   toSummary(placed),
	}, nil
}

func (s *service) assemble(ctx context.Context, tx *gorm.DB, items []cart.LineItem, info *CustomerInfo, delivery *DeliveryInfo) (*models.DraftOrder, error) {
	customer, err := s.resolveCustomer(ctx, tx, info)
	if err != nil {
		return nil, err
	}

	name, err := s.names.Next(ctx, tx, s.checkout.NamingSeries)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order name")
	}

	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.ItemCode)
	}
	uoms, err := s.repo.WithTx(tx).StockUOMs(ctx, codes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item units")
	}

	today := dateOnly(s.now())
	order := &models.DraftOrder{
		Name:              name,
		NamingSeries:      s.checkout.NamingSeries,
		Status:            enums.OrderStatusDraft,
		GuestName:         valueOr(info.Name, DefaultGuestName),
		GuestEmail:        valueOr(info.Email, DefaultGuestEmail),
		GuestPhone:        valueOr(info.Phone, DefaultGuestPhone),
		Customer:          &customer.Name,
		CustomerName:      &customer.CustomerName,
		Company:           s.checkout.Company,
		Currency:          s.checkout.Currency,
		ConversionRate:    decimal.NewFromInt(1),
		SellingPriceList:  s.checkout.PriceList,
		PlcConversionRate: decimal.NewFromInt(1),
		OrderType:         orderTypeSales,
		TransactionDate:   today,
		DeliveryDate:      today.AddDate(0, 0, s.checkout.DeliveryLeadDays),
		SetWarehouse:      optional(s.checkout.Warehouse),
	}

	for i, item := range items {
		uom := uoms[item.ItemCode]
		if uom == "" {
			uom = defaultUOM
		}
		order.Items = append(order.Items, models.DraftOrderItem{
			Parent:           name,
			Idx:              i + 1,
			ItemCode:         item.ItemCode,
			ItemName:         item.ItemName,
			Qty:              item.Qty,
			Rate:             item.Rate,
			Amount:           item.Rate.Mul(decimal.NewFromInt(int64(item.Qty))),
			UOM:              uom,
			StockUOM:         uom,
			ConversionFactor: decimal.NewFromInt(1),
			Warehouse:        optional(s.checkout.Warehouse),
		})
	}

	applyDelivery(order, info, delivery)
	return order, nil
}

func (s *service) resolveCustomer(ctx context.Context, tx *gorm.DB, info *CustomerInfo) (*customers.Summary, error) {
	scoped := s.customers.WithTx(tx)
	match, err := scoped.FindByPhone(ctx, info.Phone)
	if err != nil {
		return nil, err
	}
	if match != nil {
		return &match.Customer, nil
	}
	created, err := scoped.CreateCustomer(ctx, customers.NewCustomer{
		Name:  valueOr(info.Name, DefaultGuestName),
		Phone: info.Phone,
		Email: info.Email,
	})
	if err != nil {
		return nil, err
	}
	return &customers.Summary{Name: created.Name, CustomerName: created.CustomerName}, nil
}

// applyDelivery copies delivery details onto the order and appends them to terms.
func applyDelivery(order *models.DraftOrder, info *CustomerInfo, delivery *DeliveryInfo) {
	address := strings.TrimSpace(delivery.Address)
	phone := strings.TrimSpace(delivery.Phone)
	notes := strings.TrimSpace(delivery.Notes)

	if address != "" {
		order.GuestBillingAddress = &address
	}
	if phone != "" && phone != strings.TrimSpace(info.Phone) {
		order.GuestPhone = phone
	}

	terms := notes
	var lines []string
	if address != "" {
		lines = append(lines, "Delivery Address: "+address)
	}
	if phone != "" {
		lines = append(lines, "Contact Phone: "+phone)
	}
	if notes != "" {
		lines = append(lines, "Delivery Notes: "+notes)
	}
	if len(lines) > 0 {
		terms += "\n" + strings.Join(lines, "\n")
	}
	if terms != "" {
		order.Terms = &terms
	}
}

func (s *service) insertAndSubmit(ctx context.Context, tx *gorm.DB, order *models.DraftOrder) error {
	if err := s.validate(ctx, tx, order); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)
	if err := repo.CreateDraft(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	if err := repo.MarkSubmitted(ctx, order.Name); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit order")
	}
	order.Status = enums.OrderStatusSubmitted
	return nil
}

// validate runs before an order is saved: it attaches a customer found by the
// guest phone and recomputes totals.
func (s *service) validate(ctx context.Context, tx *gorm.DB, order *models.DraftOrder) error {
	if !order.Status.ItemsEditable() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order items cannot change after submit")
	}
	if order.Customer == nil && strings.TrimSpace(order.GuestPhone) != "" {
		match, err := s.customers.WithTx(tx).FindByPhone(ctx, order.GuestPhone)
		if err != nil {
			return err
		}
		if match != nil {
			order.Customer = &match.Customer.Name
			order.CustomerName = &match.Customer.CustomerName
			s.logg.Info(s.logg.WithField(ctx, "customer", match.Customer.Name), "orders.customer_matched")
		}
	}
	computeTotals(order)
	return nil
}

func computeTotals(order *models.DraftOrder) {
	total := decimal.Zero
	qty := decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		item.Amount = item.Rate.Mul(decimal.NewFromInt(int64(item.Qty)))
		total = total.Add(item.Amount)
		qty = qty.Add(decimal.NewFromInt(int64(item.Qty)))
	}
	taxes := decimal.Zero
	for _, tax := range order.Taxes {
		taxes = taxes.Add(tax.TaxAmount)
	}
	order.TotalQty = qty
	order.Total = total
	order.NetTotal = total
	order.TotalTaxesAndCharges = taxes
	order.GrandTotal = total.Add(taxes)
	order.RoundedTotal = order.GrandTotal
}

func (s *service) Get(ctx context.Context, name string) (*OrderDetail, error) {
	order, err := s.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return toDetail(order), nil
}

func (s *service) Status(ctx context.Context, name string) (*OrderStatus, error) {
	order, err := s.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return &OrderStatus{
		Name:       order.Name,
		Status:     order.Status,
		SalesOrder: order.SalesOrder,
		GrandTotal: order.GrandTotal,
		Modified:   order.UpdatedAt,
	}, nil
}

// AssignGuestCustomer creates, or reuses by email, a customer from the order's
// guest details and attaches it to the order.
func (s *service) AssignGuestCustomer(ctx context.Context, name string) (*CustomerAssignment, error) {
	var out *CustomerAssignment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindDraft(ctx, strings.TrimSpace(name))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Customer != nil && *order.Customer != "" {
			out = &CustomerAssignment{Order: order.Name, Customer: *order.Customer, CustomerName: deref(order.CustomerName)}
			return nil
		}

		detail, err := s.customers.WithTx(tx).CreateFromGuest(ctx, customers.GuestCustomerInput{
			Name:            order.GuestName,
			Email:           order.GuestEmail,
			Phone:           order.GuestPhone,
			BillingAddress:  deref(order.GuestBillingAddress),
			ShippingAddress: deref(order.GuestShippingAddress),
		})
		if err != nil {
			return err
		}
		if err := repo.AssignCustomer(ctx, order.Name, detail.Customer.Name, detail.Customer.CustomerName); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign customer")
		}
		out = &CustomerAssignment{
			Order:        order.Name,
			Customer:     detail.Customer.Name,
			CustomerName: detail.Customer.CustomerName,
			Created:      detail.Created,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) load(ctx context.Context, name string) (*models.DraftOrder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindDraft(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func failureReason(err error) string {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeValidation:
		return "validation"
	case pkgerrors.CodeEmptyCart:
		return "empty_cart"
	case pkgerrors.CodeConflict:
		return "cart_busy"
	case pkgerrors.CodeDependency:
		return "persistence"
	default:
		return "internal"
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func valueOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
