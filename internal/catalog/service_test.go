package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Item{}, &models.ItemPrice{}))
	return db
}

func strPtr(v string) *string { return &v }

type seedItem struct {
	code, name, group string
	image             *string
	variantOf         *string
	template          bool
	disabled          bool
	notForSale        bool
	modified          time.Time
}

func seed(t *testing.T, db *gorm.DB, items []seedItem, prices map[string]string) {
	t.Helper()
	for _, it := range items {
		require.NoError(t, db.Create(&models.Item{
			ItemCode:    it.code,
			ItemName:    it.name,
			ItemGroup:   it.group,
			Image:       it.image,
			StockUOM:    "Nos",
			Disabled:    it.disabled,
			IsSalesItem: !it.notForSale,
			HasVariants: it.template,
			VariantOf:   it.variantOf,
			Modified:    it.modified,
		}).Error)
	}
	for code, rate := range prices {
		require.NoError(t, db.Create(&models.ItemPrice{
			ItemCode:      code,
			PriceList:     "Standard Selling",
			PriceListRate: decimal.RequireFromString(rate),
			Selling:       true,
		}).Error)
	}
}

func newService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func baseCatalog(now time.Time) []seedItem {
	return []seedItem{
		{code: "TSHIRT-RED", name: "Red Shirt", group: "Apparel", modified: now.Add(-1 * time.Hour)},
		{code: "MUG-01", name: "Coffee Mug", group: "Kitchen", modified: now.Add(-2 * time.Hour)},
		{code: "HOODIE", name: "Hoodie", group: "Apparel", template: true, modified: now},
		{code: "HOODIE-S", name: "Hoodie Small", group: "Apparel", variantOf: strPtr("HOODIE"), image: strPtr("/img/hoodie-s.png"), modified: now},
		{code: "HOODIE-L", name: "Hoodie Large", group: "Apparel", variantOf: strPtr("HOODIE"), modified: now},
		{code: "OLD-CAP", name: "Old Shirt Cap", group: "Apparel", disabled: true, modified: now},
		{code: "RAW-COTTON", name: "Raw Shirt Cotton", group: "Materials", notForSale: true, modified: now},
	}
}

func TestListProductsHidesVariantsAndUnsellable(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	seed(t, db, baseCatalog(now), map[string]string{
		"TSHIRT-RED": "1234.5",
		"HOODIE-S":   "80",
		"HOODIE-L":   "95.5",
	})

	list, err := newService(t, db).ListProducts(context.Background(), ListParams{})
	require.NoError(t, err)

	codes := []string{}
	for _, p := range list.Products {
		codes = append(codes, p.ItemCode)
	}
	assert.Equal(t, []string{"HOODIE", "TSHIRT-RED", "MUG-01"}, codes)
	assert.EqualValues(t, 3, list.Pagination.Total)
	assert.False(t, list.Pagination.HasMore)
	assert.Equal(t, 20, list.Pagination.Limit)

	hoodie := list.Products[0]
	assert.True(t, hoodie.IsTemplate)
	assert.Nil(t, hoodie.Price)
	assert.Equal(t, 2, hoodie.VariantCount)
	require.NotNil(t, hoodie.PriceRange)
	assert.True(t, hoodie.PriceRange.Min.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, "95.50", hoodie.PriceRange.FormattedMax)
	require.NotNil(t, hoodie.Image)
	assert.Equal(t, "/img/hoodie-s.png", *hoodie.Image)
	assert.Empty(t, hoodie.Variants)

	shirt := list.Products[1]
	require.NotNil(t, shirt.FormattedPrice)
	assert.Equal(t, "1,234.50", *shirt.FormattedPrice)
	assert.True(t, shirt.InStock)

	mug := list.Products[2]
	assert.Nil(t, mug.Price, "unpriced item has a null price")
	assert.Nil(t, mug.FormattedPrice)
}

func TestListProductsSearchIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, baseCatalog(time.Now().UTC()), nil)

	list, err := newService(t, db).ListProducts(context.Background(), ListParams{Search: "  shirt "})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "TSHIRT-RED", list.Products[0].ItemCode)

	list, err = newService(t, db).ListProducts(context.Background(), ListParams{Search: "mug-"})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "MUG-01", list.Products[0].ItemCode)
}

func TestListProductsCategoryAndPaging(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, baseCatalog(time.Now().UTC()), nil)
	svc := newService(t, db)

	list, err := svc.ListProducts(context.Background(), ListParams{Category: "Apparel", Limit: 1})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "HOODIE", list.Products[0].ItemCode)
	assert.True(t, list.Pagination.HasMore)
	assert.EqualValues(t, 2, list.Pagination.Total)

	list, err = svc.ListProducts(context.Background(), ListParams{Category: "Apparel", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "TSHIRT-RED", list.Products[0].ItemCode)
	assert.False(t, list.Pagination.HasMore)

	list, err = svc.ListProducts(context.Background(), ListParams{Limit: 999, Offset: -5})
	require.NoError(t, err)
	assert.Equal(t, 50, list.Pagination.Limit)
	assert.Equal(t, 0, list.Pagination.Offset)
}

func TestListProductsEmptyCatalog(t *testing.T) {
	db := newTestDB(t)
	list, err := newService(t, db).ListProducts(context.Background(), ListParams{Search: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, list.Products)
	assert.EqualValues(t, 0, list.Pagination.Total)
}

func TestGetProductTemplateIncludesOrderedVariants(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, baseCatalog(time.Now().UTC()), map[string]string{"HOODIE-S": "80", "HOODIE-L": "95.5"})

	product, err := newService(t, db).GetProduct(context.Background(), " HOODIE ")
	require.NoError(t, err)
	require.Len(t, product.Variants, 2)
	assert.Equal(t, "HOODIE-L", product.Variants[0].ItemCode)
	assert.Equal(t, "Hoodie Large", product.Variants[0].ItemName)
	require.NotNil(t, product.Variants[0].FormattedPrice)
	assert.Equal(t, "95.50", *product.Variants[0].FormattedPrice)
	require.NotNil(t, product.PriceRange)
}

func TestGetProductSkipsUnsellableVariantsAndNullsMissingPrices(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	items := append(baseCatalog(now),
		seedItem{code: "HOODIE-XL", name: "Hoodie Extra", group: "Apparel", variantOf: strPtr("HOODIE"), notForSale: true, modified: now},
		seedItem{code: "HOODIE-M", name: "Hoodie Medium", group: "Apparel", variantOf: strPtr("HOODIE"), modified: now},
	)
	seed(t, db, items, map[string]string{"HOODIE-S": "80", "HOODIE-L": "95.5", "HOODIE-XL": "10"})
	svc := newService(t, db)

	product, err := svc.GetProduct(context.Background(), "HOODIE")
	require.NoError(t, err)
	codes := []string{}
	for _, v := range product.Variants {
		codes = append(codes, v.ItemCode)
	}
	assert.Equal(t, []string{"HOODIE-L", "HOODIE-M", "HOODIE-S"}, codes)
	assert.Nil(t, product.Variants[1].Price)
	assert.Nil(t, product.Variants[1].FormattedPrice)
	require.NotNil(t, product.Variants[0].Price)
	assert.True(t, product.Variants[0].Price.Equal(decimal.RequireFromString("95.5")))
	require.NotNil(t, product.PriceRange)
	assert.True(t, product.PriceRange.Min.Equal(decimal.NewFromInt(80)), "not-for-sale variant stays out of the range")

	list, err := svc.ListProducts(context.Background(), ListParams{Category: "Apparel"})
	require.NoError(t, err)
	require.NotEmpty(t, list.Products)
	assert.Equal(t, "HOODIE", list.Products[0].ItemCode)
	assert.Equal(t, 3, list.Products[0].VariantCount)

	mug, err := svc.GetProduct(context.Background(), "MUG-01")
	require.NoError(t, err)
	assert.Nil(t, mug.Price)
	assert.Nil(t, mug.FormattedPrice)
}

func TestGetProductNotFound(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, baseCatalog(time.Now().UTC()), nil)
	svc := newService(t, db)

	for _, code := range []string{"MISSING", "OLD-CAP", "RAW-COTTON", strings.Repeat("x", 100)} {
		_, err := svc.GetProduct(context.Background(), code)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, code)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code(), code)
		assert.Equal(t, "Product not found", typed.Message(), code)
	}
}

func TestSellableItemUsesLatestSellingPrice(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, baseCatalog(time.Now().UTC()), nil)
	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.ItemPrice{ItemCode: "MUG-01", PriceList: "Standard Selling", PriceListRate: decimal.NewFromInt(10), Selling: true, Modified: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.ItemPrice{ItemCode: "MUG-01", PriceList: "Standard Selling", PriceListRate: decimal.NewFromInt(12), Selling: true, Modified: now}).Error)
	require.NoError(t, db.Create(&models.ItemPrice{ItemCode: "MUG-01", PriceList: "Standard Buying", PriceListRate: decimal.NewFromInt(5), Selling: false, Modified: now.Add(time.Hour)}).Error)

	svc := newService(t, db)
	item, err := svc.SellableItem(context.Background(), "MUG-01")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Coffee Mug", item.ItemName)
	assert.Equal(t, "Kitchen", item.ItemGroup)
	assert.True(t, item.Rate.Equal(decimal.NewFromInt(12)), item.Rate.String())

	missing, err := svc.SellableItem(context.Background(), "OLD-CAP")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSellableItemRejectsOverlongCode(t *testing.T) {
	db := newTestDB(t)
	code := strings.Repeat("A", MaxTermLength)
	seed(t, db, []seedItem{{code: code, name: "Long Code", group: "Kitchen", modified: time.Now().UTC()}}, map[string]string{code: "5"})
	svc := newService(t, db)

	item, err := svc.SellableItem(context.Background(), " "+code+" ")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, code, item.ItemCode)

	for _, overlong := range []string{code + "B", code + "A"} {
		item, err = svc.SellableItem(context.Background(), overlong)
		require.NoError(t, err)
		assert.Nil(t, item, "over-long code must not match its %d-rune prefix", MaxTermLength)

		_, err = svc.GetProduct(context.Background(), overlong)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	}
}
