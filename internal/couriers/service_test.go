package couriers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:couriers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Courier{}); err != nil {
		t.Fatalf("migrate couriers: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("couriers service: %v", err)
	}
	return svc
}

func TestEnsureProfileIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.EnsureProfile(ctx, userID)
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if first.UserID != userID {
		t.Fatalf("user id = %s, want %s", first.UserID, userID)
	}
	if first.IsAvailable {
		t.Fatal("new profile should start unavailable")
	}

	second, err := svc.EnsureProfile(ctx, userID)
	if err != nil {
		t.Fatalf("ensure profile again: %v", err)
	}
	if second.UserID != userID {
		t.Fatalf("user id = %s, want %s", second.UserID, userID)
	}

	var count int64
	if err := db.Model(&models.Courier{}).Count(&count).Error; err != nil {
		t.Fatalf("count couriers: %v", err)
	}
	if count != 1 {
		t.Fatalf("profiles = %d, want 1", count)
	}
}

func TestUpdateLocationStampsPosition(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	if _, err := svc.EnsureProfile(ctx, userID); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}

	courier, err := svc.UpdateLocation(ctx, UpdateLocationInput{
		UserID:    userID,
		Latitude:  34.0209,
		Longitude: -6.8416,
	})
	if err != nil {
		t.Fatalf("update location: %v", err)
	}
	if courier.Latitude == nil || *courier.Latitude != 34.0209 {
		t.Fatalf("latitude = %v, want 34.0209", courier.Latitude)
	}
	if courier.Longitude == nil || *courier.Longitude != -6.8416 {
		t.Fatalf("longitude = %v, want -6.8416", courier.Longitude)
	}
	if courier.LocatedAt == nil {
		t.Fatal("expected located_at to be set")
	}

	_, err = svc.UpdateLocation(ctx, UpdateLocationInput{UserID: userID, Latitude: 123, Longitude: 0})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("out-of-range latitude: expected validation error, got %v", err)
	}

	_, err = svc.UpdateLocation(ctx, UpdateLocationInput{UserID: uuid.New(), Latitude: 0, Longitude: 0})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("unknown courier: expected not found, got %v", err)
	}
}

func TestSetAvailabilityToggles(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	if _, err := svc.EnsureProfile(ctx, userID); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}

	courier, err := svc.SetAvailability(ctx, userID, true)
	if err != nil {
		t.Fatalf("set available: %v", err)
	}
	if !courier.IsAvailable {
		t.Fatal("expected courier available")
	}

	courier, err = svc.SetAvailability(ctx, userID, false)
	if err != nil {
		t.Fatalf("set unavailable: %v", err)
	}
	if courier.IsAvailable {
		t.Fatal("expected courier unavailable")
	}
}

func TestLedgerSettlesCounters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger()
	courier := &models.Courier{UserID: uuid.New()}
	if err := db.Create(courier).Error; err != nil {
		t.Fatalf("seed courier: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ledger.CreditDelivery(ctx, tx, courier.UserID, decimal.NewFromInt(20)); err != nil {
			return err
		}
		return ledger.RecordCancellation(ctx, tx, courier.UserID)
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	var got models.Courier
	if err := db.First(&got, "user_id = ?", courier.UserID).Error; err != nil {
		t.Fatalf("reload courier: %v", err)
	}
	if !got.Earnings.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("earnings = %s, want 20", got.Earnings)
	}
	if got.DeliveredCount != 1 || got.CancelledCount != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", got.DeliveredCount, got.CancelledCount)
	}

	err = ledger.CreditDelivery(ctx, db, uuid.New(), decimal.NewFromInt(5))
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("unknown courier: expected not found, got %v", err)
	}
}
