package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/pkg/config"
	"github.com/angelmondragon/excommerce-backend/pkg/db"
	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
	"github.com/angelmondragon/excommerce-backend/pkg/security"
)

const sample = `{
  "items": [
    {"item_code": "TEE", "item_name": "Tee", "item_group": "Shirts", "has_variants": true},
    {"item_code": "TEE-RED", "item_name": "Tee Red", "item_group": "Shirts", "variant_of": "TEE", "price": 25.5},
    {"item_code": "MUG", "item_name": "Mug", "item_group": "Kitchen", "price": 12}
  ],
  "users": [
    {"email": "Staff@Example.com", "password": "secret-pass", "full_name": "Store Staff", "role": "staff"}
  ]
}`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:seed_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Item{}, &models.ItemPrice{}, &models.User{}))
	return conn
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	doc := `{
  "items": [
    {"item_code": "", "item_name": "x", "item_group": "g"},
    {"item_code": "A", "item_name": "", "item_group": "g", "price": -1},
    {"item_code": "A", "item_name": "dup", "item_group": "g"},
    {"item_code": "B", "item_name": "b", "item_group": "g", "variant_of": "MISSING"}
  ],
  "users": [{"email": "", "password": "", "role": "admin"}]
}`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)

	errs := multierr.Errors(err)
	assert.Len(t, errs, 8)
	assert.Contains(t, err.Error(), `duplicate item_code "A"`)
	assert.Contains(t, err.Error(), `variant_of "MISSING" is not a template item`)
	assert.Contains(t, err.Error(), `invalid user role "admin"`)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader(`{"items": [], "stores": []}`))
	require.Error(t, err)
}

func TestApplyUpsertsCatalogAndUsers(t *testing.T) {
	conn := newTestDB(t)
	file, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	opts := Options{PriceList: "Standard Selling", Password: config.PasswordConfig{}}
	ctx := context.Background()

	summary, err := Apply(ctx, db.NewFromConn(conn), file, opts)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Items: 3, Prices: 2, Users: 1}, summary)

	// A second run updates in place.
	file.Items[2].ItemName = "Big Mug"
	_, err = Apply(ctx, db.NewFromConn(conn), file, opts)
	require.NoError(t, err)

	var items int64
	require.NoError(t, conn.Model(&models.Item{}).Count(&items).Error)
	assert.EqualValues(t, 3, items)

	var mug models.Item
	require.NoError(t, conn.First(&mug, "item_code = ?", "MUG").Error)
	assert.Equal(t, "Big Mug", mug.ItemName)
	assert.True(t, mug.IsSalesItem)
	assert.Equal(t, "Nos", mug.StockUOM)

	var variant models.Item
	require.NoError(t, conn.First(&variant, "item_code = ?", "TEE-RED").Error)
	require.NotNil(t, variant.VariantOf)
	assert.Equal(t, "TEE", *variant.VariantOf)

	var prices []models.ItemPrice
	require.NoError(t, conn.Where("item_code = ?", "TEE-RED").Find(&prices).Error)
	require.Len(t, prices, 1)
	assert.True(t, prices[0].PriceListRate.Equal(decimal.RequireFromString("25.5")))
	assert.True(t, prices[0].Selling)

	var users []models.User
	require.NoError(t, conn.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "staff@example.com", users[0].Email)
	assert.Equal(t, enums.UserRoleStaff, users[0].Role)
	ok, err := security.VerifyPassword("secret-pass", users[0].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApplyRequiresPriceList(t *testing.T) {
	conn := newTestDB(t)
	_, err := Apply(context.Background(), db.NewFromConn(conn), &File{}, Options{})
	require.Error(t, err)
}
