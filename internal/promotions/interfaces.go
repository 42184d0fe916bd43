package promotions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

// Repository defines persistence operations for promotion rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, promotion *models.Promotion) (*models.Promotion, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	FindByCode(ctx context.Context, code string) (*models.Promotion, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*PromotionList, error)
	FindCandidates(ctx context.Context, merchantID uuid.UUID, now time.Time) ([]models.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
	CreateRedemption(ctx context.Context, redemption *models.PromotionRedemption) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.Promotion, error)
}

// Service defines the promotion operations exposed to controllers and the
// order workflow.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Promotion, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	GetByCode(ctx context.Context, code string) (*models.Promotion, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*PromotionList, error)
	SetActive(ctx context.Context, merchantID, promotionID uuid.UUID, active bool) error
	FindBest(ctx context.Context, input FindBestInput) (*BestPromotion, error)
}

// Redeemer consumes one use of a promotion inside an order transaction.
type Redeemer interface {
	Redeem(ctx context.Context, tx *gorm.DB, input RedeemInput) error
}

// RedeemInput carries what a redemption records.
type RedeemInput struct {
	PromotionID uuid.UUID
	OrderID     uuid.UUID
	ClientID    uuid.UUID
	Discount    decimal.Decimal
	At          time.Time
}
