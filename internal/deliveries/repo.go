package deliveries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns the GORM-backed delivery repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, delivery *models.Delivery) (*models.Delivery, error) {
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Omit("Events").Create(delivery).Error
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).
		Preload("Events").
		Where("id = ?", id).
		First(&delivery).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *repository) ListPending(ctx context.Context) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.DeliveryStatusPending).
		Order("created_at ASC").
		Find(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repository) ListForCourier(ctx context.Context, courierID uuid.UUID) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := r.db.WithContext(ctx).
		Where("courier_id = ?", courierID).
		Order("created_at DESC").
		Find(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

// Claim assigns a courier with a guarded UPDATE. A false return means someone
// else claimed the job first, or the row is gone.
func (r *repository) Claim(ctx context.Context, deliveryID, courierID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE deliveries
		SET courier_id = ?,
			status = ?,
			accepted_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND courier_id IS NULL
	`, courierID, enums.DeliveryStatusInProgress, time.Now().UTC(), deliveryID, enums.DeliveryStatusPending)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) AppendEvent(ctx context.Context, event *models.DeliveryEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("delivery_id = ?", id).
		Delete(&models.DeliveryEvent{}).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Delivery{}).Error
}

func (r *repository) LinkOrder(ctx context.Context, orderID, deliveryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("delivery_id", deliveryID).Error
}

func (r *repository) UnlinkOrder(ctx context.Context, deliveryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("delivery_id = ?", deliveryID).
		Update("delivery_id", nil).Error
}
