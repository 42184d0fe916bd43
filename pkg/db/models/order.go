package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/pkg/enums"
)

// Order is a client purchase against a single merchant.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ClientID        uuid.UUID         `gorm:"column:client_id;type:uuid;not null;index"`
	MerchantID      uuid.UUID         `gorm:"column:merchant_id;type:uuid;not null;index"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount        decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	PromotionID     *uuid.UUID        `gorm:"column:promotion_id;type:uuid"`
	DeliveryID      *uuid.UUID        `gorm:"column:delivery_id;type:uuid"`
	DeliveryAddress string            `gorm:"column:delivery_address;not null"`
	Note            *string           `gorm:"column:note"`
	Items           []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *Payment          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CompletedAt     *time.Time        `gorm:"column:completed_at"`
	CancelledAt     *time.Time        `gorm:"column:cancelled_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
