package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
)

// PlacementItem is one requested product/quantity pair.
type PlacementItem struct {
	ProductID uuid.UUID
	Qty       int
}

// PlaceOrderInput captures everything the placement workflow needs. The total
// is always recomputed server-side from snapshot prices.
type PlaceOrderInput struct {
	ClientID        uuid.UUID
	MerchantID      uuid.UUID
	Items           []PlacementItem
	PromoCode       *string
	Region          *string
	DeliveryAddress string
	Note            *string
	ActorRole       string
}

// UpdateStatusInput carries a lifecycle transition request.
type UpdateStatusInput struct {
	OrderID     uuid.UUID
	NextStatus  enums.OrderStatus
	ActorUserID uuid.UUID
	ActorRole   string
}

// CancelInput carries an order cancellation request.
type CancelInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   string
}

// ListFilters narrows the order listings.
type ListFilters struct {
	Status *enums.OrderStatus
}

// OrderList wraps a page of orders plus the next cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderCreatedEvent is emitted when placement commits.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	ClientID   uuid.UUID       `json:"client_id"`
	MerchantID uuid.UUID       `json:"merchant_id"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	PromoCode  *string         `json:"promo_code,omitempty"`
	ItemCount  int             `json:"item_count"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	ClientID   uuid.UUID         `json:"client_id"`
	MerchantID uuid.UUID         `json:"merchant_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
}

// OrderCancelledEvent is emitted when an order is cancelled.
type OrderCancelledEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	ClientID      uuid.UUID         `json:"client_id"`
	MerchantID    uuid.UUID         `json:"merchant_id"`
	FromStatus    enums.OrderStatus `json:"from_status"`
	RestockedQty  int               `json:"restocked_qty"`
	RefundPending bool              `json:"refund_pending"`
}

// RefundRequestedEvent is emitted when a paid payment flips to refund_pending.
type RefundRequestedEvent struct {
	OrderID   uuid.UUID       `json:"order_id"`
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
}
