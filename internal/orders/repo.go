package orders

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

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items", "Payment").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payment").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdatePayment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	return r.list(ctx, "client_id = ?", clientID, params, filters)
}

func (r *repository) ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	return r.list(ctx, "merchant_id = ?", merchantID, params, filters)
}

func (r *repository) list(ctx context.Context, ownerClause string, ownerID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{}).Where(ownerClause, ownerID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.Preload("Items").Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &OrderList{Orders: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Orders = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}
