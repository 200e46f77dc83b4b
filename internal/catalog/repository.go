package catalog

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/internal/repo"
	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
)

// ItemFilter narrows the sellable item listing.
type ItemFilter struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}

// Repository reads items and prices.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) sellable(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("disabled = ? AND is_sales_item = ?", false, true)
}

// ListListed returns the page of sellable non-variant items plus the total match count.
func (r *Repository) ListListed(ctx context.Context, filter ItemFilter) ([]models.Item, int64, error) {
	qb := r.sellable(ctx).Where("(variant_of IS NULL OR variant_of = '')")
	if filter.Category != "" {
		qb = qb.Where("item_group = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		qb = qb.Where("(LOWER(item_name) LIKE ? OR LOWER(item_code) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := qb.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.Item{}, 0, nil
	}

	var items []models.Item
	if err := qb.Order("modified DESC").
		Order("item_code ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindSellable loads an enabled sales item by code. It returns nil when the item
// does not exist or cannot be sold.
func (r *Repository) FindSellable(ctx context.Context, itemCode string) (*models.Item, error) {
	var item models.Item
	return repo.Optional(&item, r.sellable(ctx).Where("item_code = ?", itemCode).First(&item).Error)
}

// ListVariants returns enabled, sellable variants of the given templates
// ordered by name.
func (r *Repository) ListVariants(ctx context.Context, templateCodes []string) ([]models.Item, error) {
	if len(templateCodes) == 0 {
		return nil, nil
	}
	var variants []models.Item
	if err := r.sellable(ctx).
		Where("variant_of IN ?", templateCodes).
		Order("item_name ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// LatestSellingPrices returns the newest selling rate per item code. Items
// without a selling price are absent from the map.
func (r *Repository) LatestSellingPrices(ctx context.Context, itemCodes []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(itemCodes))
	if len(itemCodes) == 0 {
		return prices, nil
	}
	var rows []models.ItemPrice
	if err := r.db.WithContext(ctx).
		Select("item_code", "price_list_rate").
		Where("item_code IN ? AND selling = ?", itemCodes, true).
		Order("modified DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		if _, seen := prices[row.ItemCode]; seen {
			continue
		}
		prices[row.ItemCode] = row.PriceListRate
	}
	return prices, nil
}
