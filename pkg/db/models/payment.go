package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/pkg/enums"
)

// Payment tracks the money side of an order.
type Payment struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Amount     decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Status     enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaidAt     *time.Time          `gorm:"column:paid_at"`
	RefundedAt *time.Time          `gorm:"column:refunded_at"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
