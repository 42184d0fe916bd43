package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/pkg/enums"
)

// Delivery is a courier job created when a merchant dispatches an order.
type Delivery struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	MerchantID   uuid.UUID            `gorm:"column:merchant_id;type:uuid;not null"`
	CourierID    *uuid.UUID           `gorm:"column:courier_id;type:uuid;index"`
	Status       enums.DeliveryStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PickupLat    float64              `gorm:"column:pickup_lat;type:numeric(9,6);not null"`
	PickupLon    float64              `gorm:"column:pickup_lon;type:numeric(9,6);not null"`
	DropoffLat   float64              `gorm:"column:dropoff_lat;type:numeric(9,6);not null"`
	DropoffLon   float64              `gorm:"column:dropoff_lon;type:numeric(9,6);not null"`
	Address      string               `gorm:"column:address;not null"`
	Fee          decimal.Decimal      `gorm:"column:fee;type:numeric(12,2);not null;default:0"`
	Events       []DeliveryEvent      `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
	AcceptedAt   *time.Time           `gorm:"column:accepted_at"`
	DeliveredAt  *time.Time           `gorm:"column:delivered_at"`
	CancelledAt  *time.Time           `gorm:"column:cancelled_at"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
