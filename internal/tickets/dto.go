package tickets

import (
	"github.com/google/uuid"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
)

// OpenInput raises a new ticket.
type OpenInput struct {
	ClientID uuid.UUID
	OrderID  *uuid.UUID
	Subject  string
	Body     string
}

// AssignInput hands a ticket to a support agent.
type AssignInput struct {
	TicketID    uuid.UUID
	AssigneeID  uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   string
}

// RespondInput appends a reply on the thread.
type RespondInput struct {
	TicketID uuid.UUID
	AuthorID uuid.UUID
	Body     string
}

// UpdateStatusInput carries a desk transition request.
type UpdateStatusInput struct {
	TicketID    uuid.UUID
	NextStatus  enums.TicketStatus
	ActorUserID uuid.UUID
	ActorRole   string
}

// ListFilters narrows the desk listing.
type ListFilters struct {
	Status     *enums.TicketStatus
	AssigneeID *uuid.UUID
}

// TicketList wraps a page of tickets plus the next cursor.
type TicketList struct {
	Tickets    []models.SupportTicket `json:"tickets"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// TicketOpenedEvent is emitted when a client raises a ticket.
type TicketOpenedEvent struct {
	TicketID uuid.UUID  `json:"ticket_id"`
	ClientID uuid.UUID  `json:"client_id"`
	OrderID  *uuid.UUID `json:"order_id,omitempty"`
	Subject  string     `json:"subject"`
}

// TicketStatusChangedEvent is emitted on every desk transition.
type TicketStatusChangedEvent struct {
	TicketID   uuid.UUID          `json:"ticket_id"`
	ClientID   uuid.UUID          `json:"client_id"`
	FromStatus enums.TicketStatus `json:"from_status"`
	ToStatus   enums.TicketStatus `json:"to_status"`
}
