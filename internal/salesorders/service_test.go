package salesorders

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
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

type fixture struct {
	conn      *gorm.DB
	svc       Service
	customers customers.Service
	registry  *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:salesorders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	client := db.NewFromConn(conn)
	names := naming.NewGenerator()
	custSvc, err := customers.NewService(client, customers.NewRepository(conn), names, customers.Defaults{})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	svc, err := NewService(
		NewRepository(conn),
		client,
		custSvc,
		names,
		metrics.NewStorefrontMetrics(reg),
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	)
	require.NoError(t, err)
	return &fixture{conn: conn, svc: svc, customers: custSvc, registry: reg}
}

func strPtr(v string) *string { return &v }

// seedDraft inserts a submitted draft order with two items and one tax row.
func seedDraft(t *testing.T, conn *gorm.DB, name string, customer *string) {
	t.Helper()
	draft := &models.DraftOrder{
		Name:                 name,
		NamingSeries:         "EXC-ORD-.YYYY.-",
		Status:               enums.OrderStatusDraft,
		GuestName:            "Ama Mensah",
		GuestEmail:           "ama@example.com",
		GuestPhone:           "+233200000001",
		GuestBillingAddress:  strPtr("14 Oxford St, Osu"),
		Customer:             customer,
		CustomerName:         strPtr("Ama Mensah"),
		Company:              "Ex Commerce",
		Currency:             "GHS",
		ConversionRate:       decimal.NewFromInt(1),
		SellingPriceList:     "Standard Selling",
		PlcConversionRate:    decimal.NewFromInt(1),
		OrderType:            "Sales",
		TransactionDate:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		DeliveryDate:         time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC),
		SetWarehouse:         strPtr("Stores"),
		Total:                decimal.NewFromInt(100),
		NetTotal:             decimal.NewFromInt(100),
		GrandTotal:           decimal.NewFromInt(115),
		TotalTaxesAndCharges: decimal.NewFromInt(15),
		TotalQty:             decimal.NewFromInt(3),
		RoundedTotal:         decimal.NewFromInt(115),
		Items: []models.DraftOrderItem{
			{Idx: 1, ItemCode: "TSHIRT-RED", ItemName: "Red Shirt", Qty: 2, Rate: decimal.NewFromInt(30), Amount: decimal.NewFromInt(60), UOM: "Pcs", StockUOM: "Pcs", ConversionFactor: decimal.NewFromInt(1), Warehouse: strPtr("Accra Shop")},
			{Idx: 2, ItemCode: "CAP-01", ItemName: "Cap", Qty: 1, Rate: decimal.NewFromInt(40), Amount: decimal.NewFromInt(40), UOM: "Nos", StockUOM: "Nos", ConversionFactor: decimal.NewFromInt(1)},
		},
		Taxes: []models.DraftOrderTax{
			{Idx: 1, ChargeType: "On Net Total", AccountHead: "VAT - EC", Description: "VAT 15%", Rate: decimal.NewFromInt(15), TaxAmount: decimal.NewFromInt(15)},
		},
	}
	require.NoError(t, conn.Create(draft).Error)
	require.NoError(t, conn.Model(&models.DraftOrder{}).Where("name = ?", name).Update("status", enums.OrderStatusSubmitted).Error)
}

func seedCustomerWithBilling(t *testing.T, f *fixture) string {
	t.Helper()
	detail, err := f.customers.CreateFromGuest(context.Background(), customers.GuestCustomerInput{
		Name:           "Ama Mensah",
		Email:          "ama@example.com",
		Phone:          "+233200000001",
		BillingAddress: "14 Oxford St, Osu",
	})
	require.NoError(t, err)
	return detail.Customer.Name
}

func promotionCount(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "sales_order_promotions_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if hasLabel(metric, "result", result) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestPromoteCopiesDraftAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := seedCustomerWithBilling(t, f)
	seedDraft(t, f.conn, "EXC-ORD-2026-00001", &customer)

	first, err := f.svc.Promote(ctx, "EXC-ORD-2026-00001")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.True(t, strings.HasPrefix(first.SalesOrder, "SAL-ORD-"))

	second, err := f.svc.Promote(ctx, "EXC-ORD-2026-00001")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.SalesOrder, second.SalesOrder)

	var count int64
	require.NoError(t, f.conn.Model(&models.SalesOrder{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var so models.SalesOrder
	require.NoError(t, f.conn.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).Preload("Taxes").
		Where("name = ?", first.SalesOrder).Take(&so).Error)
	assert.Equal(t, enums.OrderStatusSubmitted, so.Status)
	assert.Equal(t, customer, so.Customer)
	assert.Equal(t, "Ama Mensah", so.CustomerName)
	assert.Equal(t, "GHS", so.Currency)
	assert.True(t, so.GrandTotal.Equal(decimal.NewFromInt(115)))
	require.NotNil(t, so.CustomerAddress)
	assert.True(t, strings.HasPrefix(*so.CustomerAddress, "ADDR-"))
	assert.Nil(t, so.ShippingAddressName)

	require.Len(t, so.Items, 2)
	require.NotNil(t, so.Items[0].Warehouse)
	assert.Equal(t, "Accra Shop", *so.Items[0].Warehouse)
	require.NotNil(t, so.Items[1].Warehouse)
	assert.Equal(t, "Stores", *so.Items[1].Warehouse)
	require.Len(t, so.Taxes, 1)
	assert.Equal(t, "VAT - EC", so.Taxes[0].AccountHead)

	var draft models.DraftOrder
	require.NoError(t, f.conn.Where("name = ?", "EXC-ORD-2026-00001").Take(&draft).Error)
	require.NotNil(t, draft.SalesOrder)
	assert.Equal(t, first.SalesOrder, *draft.SalesOrder)

	assert.Equal(t, float64(1), promotionCount(t, f.registry, ResultCreated))
	assert.Equal(t, float64(1), promotionCount(t, f.registry, ResultExisting))
}

func TestPromoteRequiresCustomer(t *testing.T) {
	f := newFixture(t)
	seedDraft(t, f.conn, "EXC-ORD-2026-00002", nil)

	_, err := f.svc.Promote(context.Background(), "EXC-ORD-2026-00002")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "Customer must be assigned before creating a sales order", typed.Message())
	assert.Equal(t, float64(1), promotionCount(t, f.registry, ResultFailed))
}

func TestPromoteUnknownDraft(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Promote(context.Background(), "EXC-ORD-2026-09999")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestPromoteRejectsUnsubmittedDraft(t *testing.T) {
	f := newFixture(t)
	customer := seedCustomerWithBilling(t, f)
	seedDraft(t, f.conn, "EXC-ORD-2026-00003", &customer)
	require.NoError(t, f.conn.Model(&models.DraftOrder{}).Where("name = ?", "EXC-ORD-2026-00003").
		Update("status", enums.OrderStatusCancelled).Error)

	_, err := f.svc.Promote(context.Background(), "EXC-ORD-2026-00003")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestPromoteReturnsExistingOnSourceConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := seedCustomerWithBilling(t, f)
	seedDraft(t, f.conn, "EXC-ORD-2026-00004", &customer)

	require.NoError(t, f.conn.Create(&models.SalesOrder{
		Name:             "SAL-ORD-2026-00900",
		Status:           enums.OrderStatusSubmitted,
		SourceDraftOrder: "EXC-ORD-2026-00004",
		Customer:         customer,
		CustomerName:     "Ama Mensah",
		Company:          "Ex Commerce",
		Currency:         "GHS",
		SellingPriceList: "Standard Selling",
		OrderType:        "Sales",
		TransactionDate:  time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		DeliveryDate:     time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC),
	}).Error)

	res, err := f.svc.Promote(ctx, "EXC-ORD-2026-00004")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "SAL-ORD-2026-00900", res.SalesOrder)

	var count int64
	require.NoError(t, f.conn.Model(&models.SalesOrder{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := seedCustomerWithBilling(t, f)
	seedDraft(t, f.conn, "EXC-ORD-2026-00005", &customer)

	before, err := f.svc.Status(ctx, "EXC-ORD-2026-00005")
	require.NoError(t, err)
	assert.False(t, before.HasSalesOrder)
	assert.Nil(t, before.SalesOrder)

	res, err := f.svc.Promote(ctx, "EXC-ORD-2026-00005")
	require.NoError(t, err)

	after, err := f.svc.Status(ctx, "EXC-ORD-2026-00005")
	require.NoError(t, err)
	assert.True(t, after.HasSalesOrder)
	require.NotNil(t, after.SalesOrder)
	assert.Equal(t, res.SalesOrder, *after.SalesOrder)
	require.NotNil(t, after.Status)
	assert.Equal(t, enums.OrderStatusSubmitted, *after.Status)
	require.NotNil(t, after.GrandTotal)
	assert.True(t, after.GrandTotal.Equal(decimal.NewFromInt(115)))

	_, err = f.svc.Status(ctx, "EXC-ORD-2026-09999")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestPromotePendingSkipsIneligibleDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := seedCustomerWithBilling(t, f)
	seedDraft(t, f.conn, "EXC-ORD-2026-00010", &customer)
	seedDraft(t, f.conn, "EXC-ORD-2026-00011", nil)
	seedDraft(t, f.conn, "EXC-ORD-2026-00012", &customer)

	promoted, err := f.svc.PromotePending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, promoted)

	again, err := f.svc.PromotePending(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, again)

	var unlinked int64
	require.NoError(t, f.conn.Model(&models.DraftOrder{}).Where("sales_order IS NULL").Count(&unlinked).Error)
	assert.EqualValues(t, 1, unlinked)
}
