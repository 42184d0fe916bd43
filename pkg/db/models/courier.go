package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Courier carries the livreur-specific state keyed by the user account.
type Courier struct {
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	Latitude       *float64        `gorm:"column:latitude;type:numeric(9,6)"`
	Longitude      *float64        `gorm:"column:longitude;type:numeric(9,6)"`
	IsAvailable    bool            `gorm:"column:is_available;not null;default:false"`
	Earnings       decimal.Decimal `gorm:"column:earnings;type:numeric(12,2);not null;default:0"`
	DeliveredCount int             `gorm:"column:delivered_count;not null;default:0"`
	CancelledCount int             `gorm:"column:cancelled_count;not null;default:0"`
	LocatedAt      *time.Time      `gorm:"column:located_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
