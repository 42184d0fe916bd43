package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ProductList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("merchant_id = ?", merchantID)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &ProductList{Products: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Products = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// AdjustStock applies a signed delta and reports whether a row changed. The
// guard keeps stock from ever going negative.
func (r *repository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock + ? >= 0
	`, delta, id, delta)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
