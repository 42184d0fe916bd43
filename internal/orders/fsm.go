package orders

import "github.com/souqly/souqly-backend/pkg/enums"

// transitions is the explicit lifecycle table. Any pair absent from the table
// is a disallowed transition; terminal statuses have no outgoing edges.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusAccepted, enums.OrderStatusCancelled},
	enums.OrderStatusAccepted:   {enums.OrderStatusInProgress, enums.OrderStatusCancelled},
	enums.OrderStatusInProgress: {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
	enums.OrderStatusCompleted:  {},
	enums.OrderStatusCancelled:  {},
}

// CanTransition reports whether the lifecycle table allows from -> to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
