package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqly/souqly-backend/pkg/enums"
)

// DeliveryEvent is one entry in a delivery's status history.
type DeliveryEvent struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DeliveryID uuid.UUID            `gorm:"column:delivery_id;type:uuid;not null;index"`
	FromStatus enums.DeliveryStatus `gorm:"column:from_status;type:text;not null"`
	ToStatus   enums.DeliveryStatus `gorm:"column:to_status;type:text;not null"`
	ActorID    *uuid.UUID           `gorm:"column:actor_id;type:uuid"`
	Note       *string              `gorm:"column:note"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
