package enums

import "fmt"

// TicketStatus tracks a support ticket through the desk.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

var validTicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// String implements fmt.Stringer.
func (s TicketStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TicketStatus.
func (s TicketStatus) IsValid() bool {
	for _, candidate := range validTicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the ticket is done.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// ParseTicketStatus converts raw input into a TicketStatus.
func ParseTicketStatus(value string) (TicketStatus, error) {
	for _, candidate := range validTicketStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ticket status %q", value)
}
