package deliveries

import "github.com/souqly/souqly-backend/pkg/enums"

// transitions is the courier fulfillment lifecycle. Delivered and cancelled
// are terminal.
var transitions = map[enums.DeliveryStatus][]enums.DeliveryStatus{
	enums.DeliveryStatusPending: {
		enums.DeliveryStatusInProgress,
		enums.DeliveryStatusCancelled,
	},
	enums.DeliveryStatusInProgress: {
		enums.DeliveryStatusDelivered,
		enums.DeliveryStatusCancelled,
	},
}

// CanTransition reports whether a delivery may move from one status to another.
func CanTransition(from, to enums.DeliveryStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
