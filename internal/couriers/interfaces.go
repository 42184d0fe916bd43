package couriers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
)

// Repository defines persistence operations for courier profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, courier *models.Courier) (*models.Courier, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Courier, error)
	UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, at time.Time) error
	SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error
}

// Service defines the courier profile operations.
type Service interface {
	EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.Courier, error)
	Profile(ctx context.Context, userID uuid.UUID) (*models.Courier, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Courier, error)
	UpdateLocation(ctx context.Context, input UpdateLocationInput) (*models.Courier, error)
	SetAvailability(ctx context.Context, userID uuid.UUID, available bool) (*models.Courier, error)
}
