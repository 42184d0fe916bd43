package couriers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db"
	"github.com/souqly/souqly-backend/pkg/db/models"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
)

type service struct {
	repo Repository
}

// NewService builds the courier profile service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("couriers repository required")
	}
	return &service{repo: repo}, nil
}

// EnsureProfile creates the courier row on first use. Racing creates collapse
// onto the existing row.
func (s *service) EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.Courier, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	courier, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return courier, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
	}

	created, err := s.repo.Create(ctx, &models.Courier{UserID: userID})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return s.Profile(ctx, userID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create courier profile")
	}
	return created, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*models.Courier, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	courier, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
	}
	return courier, nil
}

// FindByUserID exposes the raw repository read for collaborating services.
func (s *service) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Courier, error) {
	return s.repo.FindByUserID(ctx, userID)
}

func (s *service) UpdateLocation(ctx context.Context, input UpdateLocationInput) (*models.Courier, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	if _, err := s.Profile(ctx, input.UserID); err != nil {
		return nil, err
	}

	err := s.repo.UpdateLocation(ctx, input.UserID, input.Latitude, input.Longitude, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update location")
	}
	return s.Profile(ctx, input.UserID)
}

func (s *service) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) (*models.Courier, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.SetAvailability(ctx, userID, available); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update availability")
	}
	return s.Profile(ctx, userID)
}
