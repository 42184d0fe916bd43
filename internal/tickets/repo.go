package tickets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns the GORM-backed support desk repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, ticket *models.SupportTicket) (*models.SupportTicket, error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Omit("Messages").Create(ticket).Error
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) (*TicketList, error) {
	query := r.db.WithContext(ctx).Model(&models.SupportTicket{}).Where("client_id = ?", clientID)
	return r.page(query, params)
}

func (r *repository) ListOpenDesk(ctx context.Context, params pagination.Params, filters ListFilters) (*TicketList, error) {
	query := r.db.WithContext(ctx).Model(&models.SupportTicket{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filters.AssigneeID)
	}
	return r.page(query, params)
}

func (r *repository) page(query *gorm.DB, params pagination.Params) (*TicketList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.SupportTicket
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &TicketList{Tickets: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Tickets = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SupportTicket{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) AppendMessage(ctx context.Context, message *models.TicketMessage) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(message).Error
}
