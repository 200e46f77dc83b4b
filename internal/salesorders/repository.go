package salesorders

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/excommerce-backend/pkg/db"
	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

// Repository reads draft orders and writes the sales orders promoted from them.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// LockDraft loads a draft order with its items and taxes, holding a row lock
// on the order where the dialect supports it.
func (r *Repository) LockDraft(ctx context.Context, name string) (*models.DraftOrder, error) {
	qb := r.db.WithContext(ctx)
	if db.IsPostgres(r.db) {
		qb = qb.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.DraftOrder
	if err := qb.Where("name = ?", name).Take(&order).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("parent = ?", name).Order("idx ASC").Find(&order.Items).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("parent = ?", name).Order("idx ASC").Find(&order.Taxes).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDraft loads a draft order header.
func (r *Repository) FindDraft(ctx context.Context, name string) (*models.DraftOrder, error) {
	var order models.DraftOrder
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindSalesOrder loads a sales order header by name.
func (r *Repository) FindSalesOrder(ctx context.Context, name string) (*models.SalesOrder, error) {
	var order models.SalesOrder
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindBySource loads the sales order promoted from the given draft.
func (r *Repository) FindBySource(ctx context.Context, draftName string) (*models.SalesOrder, error) {
	var order models.SalesOrder
	if err := r.db.WithContext(ctx).Where("source_draft_order = ?", draftName).Take(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateSalesOrder inserts the order with its items and taxes.
func (r *Repository) CreateSalesOrder(ctx context.Context, order *models.SalesOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// LinkDraft stores the sales order back-reference on the draft.
func (r *Repository) LinkDraft(ctx context.Context, draftName, salesOrder string) error {
	return r.db.WithContext(ctx).
		Model(&models.DraftOrder{}).
		Where("name = ?", draftName).
		Update("sales_order", salesOrder).Error
}

// ListPromotable returns submitted drafts with a customer and no sales order,
// oldest first.
func (r *Repository) ListPromotable(ctx context.Context, limit int) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.DraftOrder{}).
		Where("status = ?", enums.OrderStatusSubmitted).
		Where("customer IS NOT NULL AND customer <> ''").
		Where("sales_order IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Pluck("name", &names).Error
	return names, err
}
