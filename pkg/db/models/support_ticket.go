package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqly/souqly-backend/pkg/enums"
)

// SupportTicket is a client-raised issue handled by the support desk.
type SupportTicket struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ClientID   uuid.UUID          `gorm:"column:client_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID         `gorm:"column:order_id;type:uuid"`
	AssigneeID *uuid.UUID         `gorm:"column:assignee_id;type:uuid;index"`
	Subject    string             `gorm:"column:subject;not null"`
	Body       string             `gorm:"column:body;not null"`
	Status     enums.TicketStatus `gorm:"column:status;type:text;not null;default:'open'"`
	Messages   []TicketMessage    `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
	ResolvedAt *time.Time         `gorm:"column:resolved_at"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TicketMessage is one reply on a ticket thread.
type TicketMessage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TicketID  uuid.UUID `gorm:"column:ticket_id;type:uuid;not null;index"`
	AuthorID  uuid.UUID `gorm:"column:author_id;type:uuid;not null"`
	Body      string    `gorm:"column:body;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
