package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder     OutboxAggregateType = "order"
	AggregateDelivery  OutboxAggregateType = "delivery"
	AggregatePayment   OutboxAggregateType = "payment"
	AggregatePromotion OutboxAggregateType = "promotion"
	AggregateTicket    OutboxAggregateType = "ticket"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateDelivery,
	AggregatePayment,
	AggregatePromotion,
	AggregateTicket,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated          OutboxEventType = "order_created"
	EventOrderStatusChanged    OutboxEventType = "order_status_changed"
	EventOrderCancelled        OutboxEventType = "order_cancelled"
	EventOrderCompleted        OutboxEventType = "order_completed"
	EventDeliveryDispatched    OutboxEventType = "delivery_dispatched"
	EventDeliveryAccepted      OutboxEventType = "delivery_accepted"
	EventDeliveryStatusChanged OutboxEventType = "delivery_status_changed"
	EventRefundRequested       OutboxEventType = "refund_requested"
	EventPromotionDeactivated  OutboxEventType = "promotion_deactivated"
	EventTicketOpened          OutboxEventType = "ticket_opened"
	EventTicketStatusChanged   OutboxEventType = "ticket_status_changed"
	EventNotificationRequested OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderCancelled,
	EventOrderCompleted,
	EventDeliveryDispatched,
	EventDeliveryAccepted,
	EventDeliveryStatusChanged,
	EventRefundRequested,
	EventPromotionDeactivated,
	EventTicketOpened,
	EventTicketStatusChanged,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
