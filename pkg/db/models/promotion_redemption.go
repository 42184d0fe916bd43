package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionRedemption records one successful application of a promotion,
// keyed for weekly/monthly/yearly usage reporting.
type PromotionRedemption struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PromotionID uuid.UUID       `gorm:"column:promotion_id;type:uuid;not null;index"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ClientID    uuid.UUID       `gorm:"column:client_id;type:uuid;not null"`
	Discount    decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	WeekKey     string          `gorm:"column:week_key;not null;index"`
	MonthKey    string          `gorm:"column:month_key;not null;index"`
	YearKey     string          `gorm:"column:year_key;not null;index"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
