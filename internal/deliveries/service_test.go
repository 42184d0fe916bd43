package deliveries

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/internal/couriers"
	"github.com/souqly/souqly-backend/internal/orders"
	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/geo"
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/outbox"
)

var errCacheMiss = errors.New("cache miss")

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) CacheDelivery(_ context.Context, deliveryID string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[deliveryID] = payload
	return nil
}

func (c *fakeCache) GetCachedDelivery(_ context.Context, deliveryID string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.data[deliveryID]
	if !ok {
		return nil, errCacheMiss
	}
	return payload, nil
}

func (c *fakeCache) InvalidateDelivery(_ context.Context, deliveryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, deliveryID)
	return nil
}

func (c *fakeCache) has(deliveryID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[deliveryID]
	return ok
}

type testTxRunner struct {
	conn *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:deliveries_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Order{},
		&models.OrderLineItem{},
		&models.Payment{},
		&models.Delivery{},
		&models.DeliveryEvent{},
		&models.Courier{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, cache *fakeCache) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "deliveries-test", Output: io.Discard})
	svc, err := NewService(
		NewRepository(db),
		testTxRunner{conn: db},
		outbox.NewService(outbox.NewRepository(db), logg),
		cache,
		couriers.NewRepository(db),
		couriers.NewLedger(),
		orders.NewRepository(db),
		time.Minute,
	)
	if err != nil {
		t.Fatalf("deliveries service: %v", err)
	}
	return svc
}

func seedAcceptedOrder(t *testing.T, db *gorm.DB, merchantID uuid.UUID) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		ClientID:        uuid.New(),
		MerchantID:      merchantID,
		Status:          enums.OrderStatusAccepted,
		Subtotal:        decimal.NewFromInt(80),
		Total:           decimal.NewFromInt(80),
		DeliveryAddress: "22 rue Souika, Rabat",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func seedCourier(t *testing.T, db *gorm.DB, lat, lon *float64) *models.Courier {
	t.Helper()
	courier := &models.Courier{
		UserID:      uuid.New(),
		Latitude:    lat,
		Longitude:   lon,
		IsAvailable: true,
	}
	if err := db.Create(courier).Error; err != nil {
		t.Fatalf("seed courier: %v", err)
	}
	return courier
}

func ptr(v float64) *float64 { return &v }

func dispatchTestDelivery(t *testing.T, svc Service, order *models.Order) *models.Delivery {
	t.Helper()
	delivery, err := svc.Dispatch(context.Background(), DispatchInput{
		OrderID:    order.ID,
		MerchantID: order.MerchantID,
		Pickup:     geo.Point{Lat: 33.9716, Lon: -6.8498},
		Dropoff:    geo.Point{Lat: 34.0209, Lon: -6.8416},
		Fee:        decimal.NewFromInt(15),
		ActorRole:  "merchant",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	return delivery
}

func TestDispatchCreatesDeliveryAndLinksOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, newFakeCache())
	order := seedAcceptedOrder(t, db, uuid.New())

	delivery := dispatchTestDelivery(t, svc, order)
	if delivery.Status != enums.DeliveryStatusPending {
		t.Fatalf("status = %s, want pending", delivery.Status)
	}
	if delivery.Address != order.DeliveryAddress {
		t.Fatalf("address = %q, want order address", delivery.Address)
	}

	var gotOrder models.Order
	if err := db.First(&gotOrder, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if gotOrder.DeliveryID == nil || *gotOrder.DeliveryID != delivery.ID {
		t.Fatalf("order delivery ref = %v, want %s", gotOrder.DeliveryID, delivery.ID)
	}

	var eventCount int64
	err := db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventDeliveryDispatched).
		Count(&eventCount).Error
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("dispatched events = %d, want 1", eventCount)
	}

	// The order now carries a delivery reference, so a second dispatch
	// must be refused.
	_, err = svc.Dispatch(context.Background(), DispatchInput{
		OrderID:    order.ID,
		MerchantID: order.MerchantID,
		Pickup:     geo.Point{Lat: 33.9716, Lon: -6.8498},
		Dropoff:    geo.Point{Lat: 34.0209, Lon: -6.8416},
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("second dispatch: expected conflict, got %v", err)
	}
}

func TestDispatchRequiresAcceptedOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, newFakeCache())
	merchantID := uuid.New()
	order := seedAcceptedOrder(t, db, merchantID)
	if err := db.Model(order).Update("status", enums.OrderStatusPending).Error; err != nil {
		t.Fatalf("reset order status: %v", err)
	}

	_, err := svc.Dispatch(context.Background(), DispatchInput{
		OrderID:    order.ID,
		MerchantID: merchantID,
		Pickup:     geo.Point{Lat: 33.97, Lon: -6.85},
		Dropoff:    geo.Point{Lat: 34.02, Lon: -6.84},
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	_, err = svc.Dispatch(context.Background(), DispatchInput{
		OrderID:    order.ID,
		MerchantID: uuid.New(),
		Pickup:     geo.Point{Lat: 33.97, Lon: -6.85},
		Dropoff:    geo.Point{Lat: 34.02, Lon: -6.84},
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("foreign merchant: expected forbidden, got %v", err)
	}
}

func TestAcceptClaimsExactlyOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	cache := newFakeCache()
	svc := newTestService(t, db, cache)
	ctx := context.Background()
	order := seedAcceptedOrder(t, db, uuid.New())
	delivery := dispatchTestDelivery(t, svc, order)
	first := seedCourier(t, db, ptr(33.97), ptr(-6.85))
	second := seedCourier(t, db, ptr(33.98), ptr(-6.86))

	accepted, err := svc.Accept(ctx, AcceptInput{
		DeliveryID: delivery.ID,
		CourierID:  first.UserID,
		ActorRole:  "livreur",
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != enums.DeliveryStatusInProgress {
		t.Fatalf("status = %s, want in_progress", accepted.Status)
	}
	if accepted.CourierID == nil || *accepted.CourierID != first.UserID {
		t.Fatalf("courier = %v, want %s", accepted.CourierID, first.UserID)
	}
	if accepted.AcceptedAt == nil {
		t.Fatal("expected accepted_at to be set")
	}
	if len(accepted.Events) != 1 {
		t.Fatalf("history events = %d, want 1", len(accepted.Events))
	}

	_, err = svc.Accept(ctx, AcceptInput{DeliveryID: delivery.ID, CourierID: second.UserID})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("second accept: expected conflict, got %v", err)
	}
}

func TestUpdateStatusDeliveredSettlesCourier(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	cache := newFakeCache()
	svc := newTestService(t, db, cache)
	ctx := context.Background()
	order := seedAcceptedOrder(t, db, uuid.New())
	delivery := dispatchTestDelivery(t, svc, order)
	courier := seedCourier(t, db, ptr(33.97), ptr(-6.85))

	if _, err := svc.Accept(ctx, AcceptInput{DeliveryID: delivery.ID, CourierID: courier.UserID}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	// Warm the cache so the status write has something to invalidate.
	if _, err := svc.Get(ctx, delivery.ID); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if !cache.has(delivery.ID.String()) {
		t.Fatal("expected cached delivery before status write")
	}

	updated, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		DeliveryID:  delivery.ID,
		NextStatus:  enums.DeliveryStatusDelivered,
		ActorUserID: courier.UserID,
		ActorRole:   "livreur",
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if updated.Status != enums.DeliveryStatusDelivered {
		t.Fatalf("status = %s, want delivered", updated.Status)
	}
	if updated.DeliveredAt == nil {
		t.Fatal("expected delivered_at to be set")
	}
	if len(updated.Events) != 2 {
		t.Fatalf("history events = %d, want 2", len(updated.Events))
	}
	if cache.has(delivery.ID.String()) {
		t.Fatal("expected cache entry invalidated by status write")
	}

	var gotCourier models.Courier
	if err := db.First(&gotCourier, "user_id = ?", courier.UserID).Error; err != nil {
		t.Fatalf("reload courier: %v", err)
	}
	if !gotCourier.Earnings.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("earnings = %s, want 15", gotCourier.Earnings)
	}
	if gotCourier.DeliveredCount != 1 {
		t.Fatalf("delivered_count = %d, want 1", gotCourier.DeliveredCount)
	}
}

func TestUpdateStatusCancelledRecordsCourier(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, newFakeCache())
	ctx := context.Background()
	order := seedAcceptedOrder(t, db, uuid.New())
	delivery := dispatchTestDelivery(t, svc, order)
	courier := seedCourier(t, db, ptr(33.97), ptr(-6.85))

	if _, err := svc.Accept(ctx, AcceptInput{DeliveryID: delivery.ID, CourierID: courier.UserID}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	cancelled, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		DeliveryID: delivery.ID,
		NextStatus: enums.DeliveryStatusCancelled,
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.CancelledAt == nil {
		t.Fatal("expected cancelled_at to be set")
	}

	var gotCourier models.Courier
	if err := db.First(&gotCourier, "user_id = ?", courier.UserID).Error; err != nil {
		t.Fatalf("reload courier: %v", err)
	}
	if gotCourier.CancelledCount != 1 {
		t.Fatalf("cancelled_count = %d, want 1", gotCourier.CancelledCount)
	}
}

func TestUpdateStatusRejectsIllegalTransitions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, newFakeCache())
	ctx := context.Background()
	order := seedAcceptedOrder(t, db, uuid.New())
	delivery := dispatchTestDelivery(t, svc, order)

	_, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		DeliveryID: delivery.ID,
		NextStatus: enums.DeliveryStatusDelivered,
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("pending->delivered: expected state conflict, got %v", err)
	}

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		DeliveryID: delivery.ID,
		NextStatus: enums.DeliveryStatus("misplaced"),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("unknown status: expected validation error, got %v", err)
	}
}

func TestAvailableForCourierSortsByDistance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, newFakeCache())
	ctx := context.Background()
	merchantID := uuid.New()

	// Courier sits in Rabat; one pickup is across town, the other in
	// Casablanca.
	courier := seedCourier(t, db, ptr(34.0209), ptr(-6.8416))
	nearOrder := seedAcceptedOrder(t, db, merchantID)
	farOrder := seedAcceptedOrder(t, db, merchantID)

	far, err := svc.Dispatch(ctx, DispatchInput{
		OrderID:    farOrder.ID,
		MerchantID: merchantID,
		Pickup:     geo.Point{Lat: 33.5731, Lon: -7.5898},
		Dropoff:    geo.Point{Lat: 33.58, Lon: -7.6},
	})
	if err != nil {
		t.Fatalf("dispatch far: %v", err)
	}
	near, err := svc.Dispatch(ctx, DispatchInput{
		OrderID:    nearOrder.ID,
		MerchantID: merchantID,
		Pickup:     geo.Point{Lat: 34.01, Lon: -6.84},
		Dropoff:    geo.Point{Lat: 34.02, Lon: -6.85},
	})
	if err != nil {
		t.Fatalf("dispatch near: %v", err)
	}

	available, err := svc.AvailableForCourier(ctx, courier.UserID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("available = %d, want 2", len(available))
	}
	if available[0].Delivery.ID != near.ID || available[1].Delivery.ID != far.ID {
		t.Fatalf("order = [%s %s], want nearest first", available[0].Delivery.ID, available[1].Delivery.ID)
	}
	if available[0].DistanceKm >= available[1].DistanceKm {
		t.Fatalf("distances not ascending: %f then %f", available[0].DistanceKm, available[1].DistanceKm)
	}

	located := seedCourier(t, db, nil, nil)
	_, err = svc.AvailableForCourier(ctx, located.UserID)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("no location: expected validation error, got %v", err)
	}
}

func TestDeleteClearsOrderReference(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	cache := newFakeCache()
	svc := newTestService(t, db, cache)
	ctx := context.Background()
	order := seedAcceptedOrder(t, db, uuid.New())
	delivery := dispatchTestDelivery(t, svc, order)

	if err := svc.Delete(ctx, delivery.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var gotOrder models.Order
	if err := db.First(&gotOrder, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if gotOrder.DeliveryID != nil {
		t.Fatalf("order delivery ref = %v, want cleared", gotOrder.DeliveryID)
	}

	_, err := svc.Get(ctx, delivery.ID)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestGetServesFromCacheUntilInvalidated(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	cache := newFakeCache()
	svc := newTestService(t, db, cache)
	ctx := context.Background()
	order := seedAcceptedOrder(t, db, uuid.New())
	delivery := dispatchTestDelivery(t, svc, order)

	if _, err := svc.Get(ctx, delivery.ID); err != nil {
		t.Fatalf("first get: %v", err)
	}

	// A direct row write does not touch the cache, so the read stays stale
	// until something invalidates it.
	err := db.Model(&models.Delivery{}).
		Where("id = ?", delivery.ID).
		Update("address", "rerouted").Error
	if err != nil {
		t.Fatalf("update row: %v", err)
	}

	cached, err := svc.Get(ctx, delivery.ID)
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if cached.Address == "rerouted" {
		t.Fatal("expected stale cached address")
	}

	if err := cache.InvalidateDelivery(ctx, delivery.ID.String()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	fresh, err := svc.Get(ctx, delivery.ID)
	if err != nil {
		t.Fatalf("fresh get: %v", err)
	}
	if fresh.Address != "rerouted" {
		t.Fatalf("address = %q, want rerouted", fresh.Address)
	}
}

func TestDistance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, newFakeCache())

	paris := geo.Point{Lat: 48.8566, Lon: 2.3522}
	lyon := geo.Point{Lat: 45.7640, Lon: 4.8357}
	got := svc.Distance(paris, lyon)
	if got < 390 || got > 394 {
		t.Fatalf("distance = %f, want about 392", got)
	}
}
