package deliveries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/geo"
)

// Repository defines persistence operations for delivery tables. LinkOrder and
// UnlinkOrder touch the orders table so dispatch and delete stay transactional.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, delivery *models.Delivery) (*models.Delivery, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	ListPending(ctx context.Context) ([]models.Delivery, error)
	ListForCourier(ctx context.Context, courierID uuid.UUID) ([]models.Delivery, error)
	Claim(ctx context.Context, deliveryID, courierID uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	AppendEvent(ctx context.Context, event *models.DeliveryEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
	LinkOrder(ctx context.Context, orderID, deliveryID uuid.UUID) error
	UnlinkOrder(ctx context.Context, deliveryID uuid.UUID) error
}

// Service defines the delivery workflow operations.
type Service interface {
	Dispatch(ctx context.Context, input DispatchInput) (*models.Delivery, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	AvailableForCourier(ctx context.Context, courierID uuid.UUID) ([]AvailableDelivery, error)
	ListForCourier(ctx context.Context, courierID uuid.UUID) ([]models.Delivery, error)
	Accept(ctx context.Context, input AcceptInput) (*models.Delivery, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Delivery, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Distance(start, end geo.Point) float64
}
