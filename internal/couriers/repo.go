package couriers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns the GORM-backed courier repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, courier *models.Courier) (*models.Courier, error) {
	if err := r.db.WithContext(ctx).Create(courier).Error; err != nil {
		return nil, err
	}
	return courier, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Courier, error) {
	var courier models.Courier
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&courier).Error
	if err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *repository) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Courier{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"latitude":   lat,
			"longitude":  lon,
			"located_at": at,
		}).Error
}

func (r *repository) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Courier{}).
		Where("user_id = ?", userID).
		Update("is_available", available).Error
}
