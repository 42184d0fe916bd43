package couriers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
)

// Ledger settles courier counters inside a delivery transaction.
type Ledger interface {
	CreditDelivery(ctx context.Context, tx *gorm.DB, courierID uuid.UUID, fee decimal.Decimal) error
	RecordCancellation(ctx context.Context, tx *gorm.DB, courierID uuid.UUID) error
}

type ledgerImpl struct{}

// NewLedger exposes the default counter implementation.
func NewLedger() Ledger {
	return ledgerImpl{}
}

// CreditDelivery adds the delivery fee to the courier's earnings and bumps the
// delivered count.
func (ledgerImpl) CreditDelivery(ctx context.Context, tx *gorm.DB, courierID uuid.UUID, fee decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for earnings credit")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE couriers
		SET earnings = earnings + ?,
			delivered_count = delivered_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, fee, courierID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "credit courier")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "courier profile not found")
	}
	return nil
}

// RecordCancellation bumps the cancelled count.
func (ledgerImpl) RecordCancellation(ctx context.Context, tx *gorm.DB, courierID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for cancellation record")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE couriers
		SET cancelled_count = cancelled_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, courierID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "record cancellation")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "courier profile not found")
	}
	return nil
}
