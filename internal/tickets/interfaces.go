package tickets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

// Repository defines persistence operations for the support desk.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.SupportTicket) (*models.SupportTicket, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) (*TicketList, error)
	ListOpenDesk(ctx context.Context, params pagination.Params, filters ListFilters) (*TicketList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	AppendMessage(ctx context.Context, message *models.TicketMessage) error
}

// Service defines the support desk operations.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.SupportTicket, error)
	Get(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) (*TicketList, error)
	ListDesk(ctx context.Context, params pagination.Params, filters ListFilters) (*TicketList, error)
	Assign(ctx context.Context, input AssignInput) (*models.SupportTicket, error)
	Respond(ctx context.Context, input RespondInput) (*models.SupportTicket, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.SupportTicket, error)
}
