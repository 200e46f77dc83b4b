package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
)

// Repository defines persistence operations for draft orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateDraft(ctx context.Context, order *models.DraftOrder) error
	MarkSubmitted(ctx context.Context, name string) error
	FindDraft(ctx context.Context, name string) (*models.DraftOrder, error)
	AssignCustomer(ctx context.Context, name, customer, customerName string) error
	StockUOMs(ctx context.Context, itemCodes []string) (map[string]string, error)
}
