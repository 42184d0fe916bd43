package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/pkg/enums"
)

// Promotion is a merchant discount code with optional region/product scoping.
// Regions and ApplicableProductIDs empty means the promotion applies everywhere.
type Promotion struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	MerchantID           uuid.UUID          `gorm:"column:merchant_id;type:uuid;not null;index"`
	Code                 string             `gorm:"column:code;not null;uniqueIndex"`
	DiscountType         enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	Value                decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	ExpiresAt            *time.Time         `gorm:"column:expires_at"`
	UsageLimit           int                `gorm:"column:usage_limit;not null"`
	UsedCount            int                `gorm:"column:used_count;not null;default:0"`
	IsActive             bool               `gorm:"column:is_active;not null;default:true"`
	Regions              pq.StringArray     `gorm:"column:regions;type:text[]"`
	ApplicableProductIDs pq.StringArray     `gorm:"column:applicable_product_ids;type:text[]"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// AppliesToProduct reports whether the promotion covers the given product.
func (p *Promotion) AppliesToProduct(productID uuid.UUID) bool {
	if len(p.ApplicableProductIDs) == 0 {
		return true
	}
	id := productID.String()
	for _, candidate := range p.ApplicableProductIDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// AppliesToRegion reports whether the promotion covers the given region.
func (p *Promotion) AppliesToRegion(region string) bool {
	if len(p.Regions) == 0 {
		return true
	}
	for _, candidate := range p.Regions {
		if candidate == region {
			return true
		}
	}
	return false
}
