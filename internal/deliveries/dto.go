package deliveries

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	"github.com/souqly/souqly-backend/pkg/geo"
)

// DispatchInput creates a courier job for an accepted order.
type DispatchInput struct {
	OrderID    uuid.UUID
	MerchantID uuid.UUID
	Pickup     geo.Point
	Dropoff    geo.Point
	Fee        decimal.Decimal
	ActorRole  string
}

// AcceptInput claims a pending delivery for a courier. AssignedBy differs from
// CourierID when an admin assigns the job.
type AcceptInput struct {
	DeliveryID uuid.UUID
	CourierID  uuid.UUID
	AssignedBy uuid.UUID
	ActorRole  string
}

// UpdateStatusInput carries a fulfillment transition request.
type UpdateStatusInput struct {
	DeliveryID  uuid.UUID
	NextStatus  enums.DeliveryStatus
	ActorUserID uuid.UUID
	ActorRole   string
	Note        *string
}

// AvailableDelivery is a pending job annotated with the courier's distance to
// the pickup point.
type AvailableDelivery struct {
	Delivery   models.Delivery `json:"delivery"`
	DistanceKm float64         `json:"distance_km"`
}

// DeliveryDispatchedEvent is emitted when a merchant dispatches an order.
type DeliveryDispatchedEvent struct {
	DeliveryID uuid.UUID `json:"delivery_id"`
	OrderID    uuid.UUID `json:"order_id"`
	MerchantID uuid.UUID `json:"merchant_id"`
}

// DeliveryAcceptedEvent is emitted when a courier claims a job.
type DeliveryAcceptedEvent struct {
	DeliveryID uuid.UUID `json:"delivery_id"`
	OrderID    uuid.UUID `json:"order_id"`
	CourierID  uuid.UUID `json:"courier_id"`
}

// DeliveryStatusChangedEvent is emitted on every fulfillment transition.
type DeliveryStatusChangedEvent struct {
	DeliveryID uuid.UUID            `json:"delivery_id"`
	OrderID    uuid.UUID            `json:"order_id"`
	CourierID  *uuid.UUID           `json:"courier_id,omitempty"`
	FromStatus enums.DeliveryStatus `json:"from_status"`
	ToStatus   enums.DeliveryStatus `json:"to_status"`
}
