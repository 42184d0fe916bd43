package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqly/souqly-backend/pkg/enums"
)

// Notification is an in-app message surfaced to a user.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Body      string                 `gorm:"column:body;not null"`
	IsRead    bool                   `gorm:"column:is_read;not null;default:false"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
