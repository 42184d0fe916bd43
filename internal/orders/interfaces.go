package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdatePayment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
}

// Service defines the order workflow operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
}
