package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
)

// StockKeeper moves stock inside an order transaction.
type StockKeeper interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type stockKeeperImpl struct{}

// NewStockKeeper exposes the default guarded stock implementation.
func NewStockKeeper() StockKeeper {
	return stockKeeperImpl{}
}

// Reserve decrements stock for an order line. The guard rejects the write when
// remaining stock is insufficient, so concurrent placements cannot oversell.
func (stockKeeperImpl) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reserve")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
	}
	return nil
}

// Restore returns stock when an order is cancelled.
func (stockKeeperImpl) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock restore")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}
	return nil
}
