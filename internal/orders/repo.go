package orders

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateDraft inserts the order with its items and taxes.
func (r *repository) CreateDraft(ctx context.Context, order *models.DraftOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// MarkSubmitted moves a Draft order to Submitted.
func (r *repository) MarkSubmitted(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).
		Model(&models.DraftOrder{}).
		Where("name = ? AND status = ?", name, enums.OrderStatusDraft).
		Update("status", enums.OrderStatusSubmitted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s is not in draft", name)
	}
	return nil
}

func (r *repository) FindDraft(ctx context.Context, name string) (*models.DraftOrder, error) {
	var order models.DraftOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Preload("Taxes", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Where("name = ?", name).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) AssignCustomer(ctx context.Context, name, customer, customerName string) error {
	return r.db.WithContext(ctx).
		Model(&models.DraftOrder{}).
		Where("name = ?", name).
		Updates(map[string]any{"customer": customer, "customer_name": customerName}).Error
}

// StockUOMs maps item codes to their stock unit of measure.
func (r *repository) StockUOMs(ctx context.Context, itemCodes []string) (map[string]string, error) {
	out := make(map[string]string, len(itemCodes))
	if len(itemCodes) == 0 {
		return out, nil
	}
	var rows []struct {
		ItemCode string `gorm:"column:item_code"`
		StockUOM string `gorm:"column:stock_uom"`
	}
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Select("item_code", "stock_uom").
		Where("item_code IN ?", itemCodes).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ItemCode] = row.StockUOM
	}
	return out, nil
}
