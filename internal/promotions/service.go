package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db"
	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

var oneHundred = decimal.NewFromInt(100)

type service struct {
	repo Repository
}

// NewService builds the promotion service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	return &service{repo: repo}, nil
}

// IsValid is the shared validity predicate: active, under its usage limit and
// not expired at the reference time.
func IsValid(p *models.Promotion, now time.Time) bool {
	if p == nil || !p.IsActive {
		return false
	}
	if p.UsedCount >= p.UsageLimit {
		return false
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return false
	}
	return true
}

// ComputeDiscount returns the discount p grants on subtotal, clamped so the
// payable amount never goes below zero.
func ComputeDiscount(p *models.Promotion, subtotal decimal.Decimal) decimal.Decimal {
	if p == nil || subtotal.IsNegative() {
		return decimal.Zero
	}
	var discount decimal.Decimal
	switch p.DiscountType {
	case enums.DiscountTypePercentage:
		discount = subtotal.Mul(p.Value).Div(oneHundred).Round(2)
	case enums.DiscountTypeFixed:
		discount = p.Value
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Promotion, error) {
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion code required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type")
	}
	if input.Value.IsNegative() || input.Value.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.Value.GreaterThan(oneHundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage cannot exceed 100")
	}
	if input.UsageLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be positive")
	}

	productIDs := make([]string, 0, len(input.ApplicableProductIDs))
	for _, id := range input.ApplicableProductIDs {
		productIDs = append(productIDs, id.String())
	}

	promotion := &models.Promotion{
		ID:                   uuid.New(),
		MerchantID:           input.MerchantID,
		Code:                 code,
		DiscountType:         input.DiscountType,
		Value:                input.Value,
		ExpiresAt:            input.ExpiresAt,
		UsageLimit:           input.UsageLimit,
		IsActive:             true,
		Regions:              input.Regions,
		ApplicableProductIDs: productIDs,
	}
	created, err := s.repo.Create(ctx, promotion)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promotion code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion id required")
	}
	promotion, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	return promotion, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.Promotion, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion code required")
	}
	promotion, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	return promotion, nil
}

func (s *service) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*PromotionList, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	list, err := s.repo.ListByMerchant(ctx, merchantID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	return list, nil
}

func (s *service) SetActive(ctx context.Context, merchantID, promotionID uuid.UUID, active bool) error {
	if merchantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	promotion, err := s.Get(ctx, promotionID)
	if err != nil {
		return err
	}
	if promotion.MerchantID != merchantID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "promotion does not belong to merchant")
	}
	if promotion.IsActive == active {
		return nil
	}
	if err := s.repo.Update(ctx, promotion.ID, map[string]any{"is_active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle promotion")
	}
	return nil
}

// FindBest evaluates every valid candidate against the order context and
// returns the one granting the largest discount. Later candidates replace the
// current winner only with a strictly greater discount, so the oldest
// promotion wins ties.
func (s *service) FindBest(ctx context.Context, input FindBestInput) (*BestPromotion, error) {
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if input.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}
	at := input.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	candidates, err := s.repo.FindCandidates(ctx, input.MerchantID, at)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion candidates")
	}

	var best *BestPromotion
	for i := range candidates {
		candidate := candidates[i]
		if !IsValid(&candidate, at) {
			continue
		}
		if !appliesTo(&candidate, input) {
			continue
		}
		discount := ComputeDiscount(&candidate, input.Subtotal)
		if discount.IsZero() {
			continue
		}
		if best == nil || discount.GreaterThan(best.Discount) {
			best = &BestPromotion{Promotion: candidate, Discount: discount}
		}
	}
	return best, nil
}

func appliesTo(p *models.Promotion, input FindBestInput) bool {
	if input.Region != nil && !p.AppliesToRegion(*input.Region) {
		return false
	}
	if len(p.ApplicableProductIDs) == 0 {
		return true
	}
	for _, id := range input.ProductIDs {
		if p.AppliesToProduct(id) {
			return true
		}
	}
	return false
}
