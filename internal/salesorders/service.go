package salesorders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/internal/customers"
	"github.com/angelmondragon/excommerce-backend/internal/naming"
	"github.com/angelmondragon/excommerce-backend/pkg/db"
	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
	"github.com/angelmondragon/excommerce-backend/pkg/metrics"
)

// Promotion outcomes recorded in metrics.
const (
	ResultCreated  = "created"
	ResultExisting = "existing"
	ResultFailed   = "failed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service promotes submitted draft orders to sales orders.
type Service interface {
	Promote(ctx context.Context, draftName string) (*PromoteResult, error)
	Status(ctx context.Context, draftName string) (*Status, error)
	PromotePending(ctx context.Context, limit int) (int, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	customers customers.Service
	names     naming.Generator
	metrics   *metrics.StorefrontMetrics
	logg      *logger.Logger
}

// NewService wires the promotion service.
func NewService(repo *Repository, tx txRunner, custs customers.Service, names naming.Generator, m *metrics.StorefrontMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if custs == nil {
		return nil, fmt.Errorf("customer service required")
	}
	if names == nil {
		return nil, fmt.Errorf("name generator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, customers: custs, names: names, metrics: m, logg: logg}, nil
}

// Promote creates and submits a sales order from the draft. A draft that is
// already linked returns its existing sales order.
func (s *service) Promote(ctx context.Context, draftName string) (*PromoteResult, error) {
	draftName = strings.TrimSpace(draftName)
	if draftName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	ctx = s.logg.WithOrderName(ctx, draftName)

	var result *PromoteResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		draft, err := repo.LockDraft(ctx, draftName)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if draft.Customer == nil || *draft.Customer == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "Customer must be assigned before creating a sales order")
		}
		if draft.SalesOrder != nil && *draft.SalesOrder != "" {
			result = &PromoteResult{DraftOrder: draft.Name, SalesOrder: *draft.SalesOrder}
			return nil
		}
		if draft.Status != enums.OrderStatusSubmitted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order must be submitted before creating a sales order").
				WithDetails(map[string]any{"status": draft.Status})
		}

		order, err := s.build(ctx, tx, draft)
		if err != nil {
			return err
		}
		if err := repo.CreateSalesOrder(ctx, order); err != nil {
			return err
		}
		if err := repo.LinkDraft(ctx, draft.Name, order.Name); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link sales order")
		}
		result = &PromoteResult{DraftOrder: draft.Name, SalesOrder: order.Name, Created: true}
		return nil
	})
	// A concurrent promotion of the same draft loses on the source_draft_order
	// unique index; report the winner.
	if db.IsUniqueViolation(err, "") {
		existing, findErr := s.repo.FindBySource(ctx, draftName)
		if findErr == nil {
			s.metrics.IncPromotion(ResultExisting)
			return &PromoteResult{DraftOrder: draftName, SalesOrder: existing.Name}, nil
		}
	}
	if err != nil {
		s.metrics.IncPromotion(ResultFailed)
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sales order")
		}
		return nil, err
	}

	if result.Created {
		s.metrics.IncPromotion(ResultCreated)
		s.logg.Info(s.logg.WithField(ctx, "sales_order", result.SalesOrder), "salesorders.promoted")
	} else {
		s.metrics.IncPromotion(ResultExisting)
	}
	return result, nil
}

func (s *service) build(ctx context.Context, tx *gorm.DB, draft *models.DraftOrder) (*models.SalesOrder, error) {
	name, err := s.names.Next(ctx, tx, naming.SeriesSalesOrder)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate sales order name")
	}

	addresses := s.customers.WithTx(tx)
	var billing, shipping *string
	if draft.GuestBillingAddress != nil {
		addr, err := addresses.PrimaryAddress(ctx, *draft.Customer, enums.AddressTypeBilling)
		if err != nil {
			return nil, err
		}
		if addr != nil {
			billing = &addr.Name
		}
	}
	if draft.GuestShippingAddress != nil {
		addr, err := addresses.PrimaryAddress(ctx, *draft.Customer, enums.AddressTypeShipping)
		if err != nil {
			return nil, err
		}
		if addr != nil {
			shipping = &addr.Name
		}
	}

	customerName := *draft.Customer
	if draft.CustomerName != nil && *draft.CustomerName != "" {
		customerName = *draft.CustomerName
	}

	order := &models.SalesOrder{
		Name:                name,
		Status:              enums.OrderStatusSubmitted,
		SourceDraftOrder:    draft.Name,
		Customer:            *draft.Customer,
		CustomerName:        customerName,
		Company:             draft.Company,
		Currency:            draft.Currency,
		ConversionRate:      draft.ConversionRate,
		SellingPriceList:    draft.SellingPriceList,
		PlcConversionRate:   draft.PlcConversionRate,
		OrderType:           draft.OrderType,
		TransactionDate:     draft.TransactionDate,
		DeliveryDate:        draft.DeliveryDate,
		PoNo:                draft.PoNo,
		PoDate:              draft.PoDate,
		SetWarehouse:        draft.SetWarehouse,
		CustomerAddress:     billing,
		ShippingAddressName: shipping,
	}

	total := decimal.Zero
	qty := decimal.Zero
	for _, item := range draft.Items {
		warehouse := item.Warehouse
		if warehouse == nil || *warehouse == "" {
			warehouse = draft.SetWarehouse
		}
		order.Items = append(order.Items, models.SalesOrderItem{
			Parent:           name,
			Idx:              item.Idx,
			ItemCode:         item.ItemCode,
			ItemName:         item.ItemName,
			Qty:              item.Qty,
			Rate:             item.Rate,
			Amount:           item.Amount,
			UOM:              item.UOM,
			StockUOM:         item.StockUOM,
			ConversionFactor: item.ConversionFactor,
			Warehouse:        warehouse,
			DeliveryDate:     draft.DeliveryDate,
		})
		total = total.Add(item.Amount)
		qty = qty.Add(decimal.NewFromInt(int64(item.Qty)))
	}

	taxes := decimal.Zero
	for _, tax := range draft.Taxes {
		order.Taxes = append(order.Taxes, models.SalesOrderTax{
			Parent:      name,
			Idx:         tax.Idx,
			ChargeType:  tax.ChargeType,
			AccountHead: tax.AccountHead,
			Description: tax.Description,
			Rate:        tax.Rate,
			TaxAmount:   tax.TaxAmount,
		})
		taxes = taxes.Add(tax.TaxAmount)
	}

	order.TotalQty = qty
	order.Total = total
	order.NetTotal = total
	order.TotalTaxesAndCharges = taxes
	order.GrandTotal = total.Add(taxes)
	return order, nil
}

func (s *service) Status(ctx context.Context, draftName string) (*Status, error) {
	draftName = strings.TrimSpace(draftName)
	draft, err := s.repo.FindDraft(ctx, draftName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	out := &Status{DraftOrder: draft.Name}
	if draft.SalesOrder == nil || *draft.SalesOrder == "" {
		return out, nil
	}
	out.HasSalesOrder = true
	out.SalesOrder = draft.SalesOrder

	order, err := s.repo.FindSalesOrder(ctx, *draft.SalesOrder)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales order")
	}
	out.Status = &order.Status
	out.GrandTotal = &order.GrandTotal
	return out, nil
}

// PromotePending promotes up to limit submitted drafts that have a customer
// but no sales order. Failures are logged and skipped.
func (s *service) PromotePending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 50
	}
	names, err := s.repo.ListPromotable(ctx, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotable orders")
	}
	promoted := 0
	for _, name := range names {
		res, err := s.Promote(ctx, name)
		if err != nil {
			s.logg.Error(s.logg.WithOrderName(ctx, name), "salesorders.backfill_failed", err)
			continue
		}
		if res.Created {
			promoted++
		}
	}
	return promoted, nil
}
