package promotions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
)

// CreateInput carries the fields accepted when a merchant creates a promotion.
type CreateInput struct {
	MerchantID           uuid.UUID
	Code                 string
	DiscountType         enums.DiscountType
	Value                decimal.Decimal
	ExpiresAt            *time.Time
	UsageLimit           int
	Regions              []string
	ApplicableProductIDs []uuid.UUID
}

// FindBestInput scopes the best-promotion search to one order's context.
type FindBestInput struct {
	MerchantID uuid.UUID
	ProductIDs []uuid.UUID
	Region     *string
	Subtotal   decimal.Decimal
	At         time.Time
}

// BestPromotion pairs the winning promotion with its computed discount.
type BestPromotion struct {
	Promotion models.Promotion `json:"promotion"`
	Discount  decimal.Decimal  `json:"discount"`
}

// PromotionList wraps a page of promotions plus the next cursor.
type PromotionList struct {
	Promotions []models.Promotion `json:"promotions"`
	NextCursor string             `json:"next_cursor,omitempty"`
}
