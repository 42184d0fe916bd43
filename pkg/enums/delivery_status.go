package enums

import "fmt"

// DeliveryStatus tracks courier fulfillment of a dispatched order.
type DeliveryStatus string

const (
	DeliveryStatusPending    DeliveryStatus = "pending"
	DeliveryStatusInProgress DeliveryStatus = "in_progress"
	DeliveryStatusDelivered  DeliveryStatus = "delivered"
	DeliveryStatusCancelled  DeliveryStatus = "cancelled"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPending,
	DeliveryStatusInProgress,
	DeliveryStatusDelivered,
	DeliveryStatusCancelled,
}

// String implements fmt.Stringer.
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (s DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the delivery can no longer change state.
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusCancelled
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
