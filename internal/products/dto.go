package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/souqly-backend/pkg/db/models"
)

// CreateInput carries the fields accepted when a merchant lists a product.
type CreateInput struct {
	MerchantID  uuid.UUID
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
}

// UpdateInput carries the mutable fields of a listing.
type UpdateInput struct {
	MerchantID  uuid.UUID
	ProductID   uuid.UUID
	Name        *string
	Description *string
	Price       *decimal.Decimal
}

// AdjustStockInput moves stock by a signed delta.
type AdjustStockInput struct {
	MerchantID uuid.UUID
	ProductID  uuid.UUID
	Delta      int
}

// ProductList wraps a page of products plus the next cursor.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
