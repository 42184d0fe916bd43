package promotions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
)

type redeemerImpl struct {
	repo Repository
}

// NewRedeemer exposes the default redemption implementation.
func NewRedeemer(repo Repository) Redeemer {
	return &redeemerImpl{repo: repo}
}

// Redeem consumes one use and records the redemption inside the caller's
// transaction. Hitting the usage limit surfaces as a validation error so the
// whole order rolls back.
func (r *redeemerImpl) Redeem(ctx context.Context, tx *gorm.DB, input RedeemInput) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for redemption")
	}
	if input.PromotionID == uuid.Nil || input.OrderID == uuid.Nil || input.ClientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion, order and client ids required")
	}

	at := input.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	repo := r.repo.WithTx(tx)
	consumed, err := repo.IncrementUsage(ctx, input.PromotionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume promotion use")
	}
	if !consumed {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion usage limit reached")
	}

	keys := PeriodKeysAt(at)
	redemption := &models.PromotionRedemption{
		ID:          uuid.New(),
		PromotionID: input.PromotionID,
		OrderID:     input.OrderID,
		ClientID:    input.ClientID,
		Discount:    input.Discount,
		WeekKey:     keys.Week,
		MonthKey:    keys.Month,
		YearKey:     keys.Year,
	}
	if err := repo.CreateRedemption(ctx, redemption); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record redemption")
	}
	return nil
}
