package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

// Repository defines persistence operations for product rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ProductList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error)
}

// Service defines the product operations exposed to controllers.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ProductList, error)
	Update(ctx context.Context, input UpdateInput) (*models.Product, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*models.Product, error)
	SetActive(ctx context.Context, merchantID, productID uuid.UUID, active bool) error
}
