package deliveries

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/geo"
	"github.com/souqly/souqly-backend/pkg/outbox"
)

const defaultCacheTTL = time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type deliveryCache interface {
	CacheDelivery(ctx context.Context, deliveryID string, payload []byte, ttl time.Duration) error
	GetCachedDelivery(ctx context.Context, deliveryID string) ([]byte, error)
	InvalidateDelivery(ctx context.Context, deliveryID string) error
}

type courierLocator interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Courier, error)
}

type courierLedger interface {
	CreditDelivery(ctx context.Context, tx *gorm.DB, courierID uuid.UUID, fee decimal.Decimal) error
	RecordCancellation(ctx context.Context, tx *gorm.DB, courierID uuid.UUID) error
}

type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	cache    deliveryCache
	couriers courierLocator
	ledger   courierLedger
	orders   orderLoader
	cacheTTL time.Duration
}

// NewService builds the delivery workflow service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	publisher outboxPublisher,
	cache deliveryCache,
	couriers courierLocator,
	ledger courierLedger,
	orders orderLoader,
	cacheTTL time.Duration,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cache == nil {
		return nil, fmt.Errorf("delivery cache required")
	}
	if couriers == nil {
		return nil, fmt.Errorf("courier locator required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("courier ledger required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   publisher,
		cache:    cache,
		couriers: couriers,
		ledger:   ledger,
		orders:   orders,
		cacheTTL: cacheTTL,
	}, nil
}

// Dispatch creates a courier job for an accepted order and links it back to
// the order row in the same transaction.
func (s *service) Dispatch(ctx context.Context, input DispatchInput) (*models.Delivery, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !validCoords(input.Pickup) || !validCoords(input.Dropoff) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	if input.Fee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee cannot be negative")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.MerchantID != input.MerchantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another merchant")
	}
	if order.Status != enums.OrderStatusAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not accepted").
			WithDetails(map[string]any{"status": order.Status})
	}
	if order.DeliveryID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already dispatched")
	}

	var dispatched *models.Delivery
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		delivery := &models.Delivery{
			ID:         uuid.New(),
			OrderID:    order.ID,
			MerchantID: order.MerchantID,
			Status:     enums.DeliveryStatusPending,
			PickupLat:  input.Pickup.Lat,
			PickupLon:  input.Pickup.Lon,
			DropoffLat: input.Dropoff.Lat,
			DropoffLon: input.Dropoff.Lon,
			Address:    order.DeliveryAddress,
			Fee:        input.Fee,
		}
		if _, err := repo.Create(ctx, delivery); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
		}
		if err := repo.LinkOrder(ctx, order.ID, delivery.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link order")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventDeliveryDispatched,
			AggregateType: enums.AggregateDelivery,
			AggregateID:   delivery.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.MerchantID, Role: input.ActorRole},
			Data: DeliveryDispatchedEvent{
				DeliveryID: delivery.ID,
				OrderID:    order.ID,
				MerchantID: order.MerchantID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit delivery dispatched")
		}
		dispatched = delivery
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dispatched, nil
}

// Get serves delivery reads through the redis cache. Cache failures fall back
// to the database.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}

	if payload, err := s.cache.GetCachedDelivery(ctx, id.String()); err == nil && len(payload) > 0 {
		var cached models.Delivery
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
	}

	delivery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}

	if payload, err := json.Marshal(delivery); err == nil {
		_ = s.cache.CacheDelivery(ctx, id.String(), payload, s.cacheTTL)
	}
	return delivery, nil
}

// AvailableForCourier lists pending jobs sorted by distance from the courier
// to the pickup point.
func (s *service) AvailableForCourier(ctx context.Context, courierID uuid.UUID) ([]AvailableDelivery, error) {
	if courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	courier, err := s.couriers.FindByUserID(ctx, courierID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
	}
	if courier.Latitude == nil || courier.Longitude == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier location unknown")
	}

	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending deliveries")
	}

	origin := geo.Point{Lat: *courier.Latitude, Lon: *courier.Longitude}
	available := make([]AvailableDelivery, 0, len(pending))
	for _, delivery := range pending {
		pickup := geo.Point{Lat: delivery.PickupLat, Lon: delivery.PickupLon}
		available = append(available, AvailableDelivery{
			Delivery:   delivery,
			DistanceKm: geo.DistanceKm(origin, pickup),
		})
	}
	sort.Slice(available, func(i, j int) bool {
		return available[i].DistanceKm < available[j].DistanceKm
	})
	return available, nil
}

func (s *service) ListForCourier(ctx context.Context, courierID uuid.UUID) ([]models.Delivery, error) {
	if courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	deliveries, err := s.repo.ListForCourier(ctx, courierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list courier deliveries")
	}
	return deliveries, nil
}

// Accept claims a pending delivery for a courier. The guarded claim means two
// couriers racing for the same job resolve to exactly one winner.
func (s *service) Accept(ctx context.Context, input AcceptInput) (*models.Delivery, error) {
	if input.DeliveryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}
	if input.CourierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	if _, err := s.couriers.FindByUserID(ctx, input.CourierID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courier")
	}

	delivery, err := s.repo.FindByID(ctx, input.DeliveryID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		claimed, err := repo.Claim(ctx, input.DeliveryID, input.CourierID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim delivery")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeConflict, "delivery already claimed")
		}

		actorID := input.AssignedBy
		if actorID == uuid.Nil {
			actorID = input.CourierID
		}
		event := &models.DeliveryEvent{
			DeliveryID: input.DeliveryID,
			FromStatus: enums.DeliveryStatusPending,
			ToStatus:   enums.DeliveryStatusInProgress,
			ActorID:    &actorID,
		}
		if err := repo.AppendEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append delivery event")
		}

		accepted := outbox.DomainEvent{
			EventType:     enums.EventDeliveryAccepted,
			AggregateType: enums.AggregateDelivery,
			AggregateID:   input.DeliveryID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: input.ActorRole},
			Data: DeliveryAcceptedEvent{
				DeliveryID: input.DeliveryID,
				OrderID:    delivery.OrderID,
				CourierID:  input.CourierID,
			},
		}
		return s.outbox.Emit(ctx, tx, accepted)
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.InvalidateDelivery(ctx, input.DeliveryID.String())
	return s.reload(ctx, input.DeliveryID)
}

// UpdateStatus applies one fulfillment transition, appends the history event
// and settles courier counters on the terminal statuses.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Delivery, error) {
	if input.DeliveryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}
	if !input.NextStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		delivery, err := repo.FindByID(ctx, input.DeliveryID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
		}
		if delivery.Status == input.NextStatus {
			return nil
		}
		if !CanTransition(delivery.Status, input.NextStatus) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed").
				WithDetails(map[string]any{"from": delivery.Status, "to": input.NextStatus})
		}

		now := time.Now().UTC()
		updates := map[string]any{"status": input.NextStatus}
		switch input.NextStatus {
		case enums.DeliveryStatusDelivered:
			updates["delivered_at"] = now
		case enums.DeliveryStatusCancelled:
			updates["cancelled_at"] = now
		}
		if err := repo.Update(ctx, delivery.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery status")
		}

		if delivery.CourierID != nil {
			switch input.NextStatus {
			case enums.DeliveryStatusDelivered:
				if err := s.ledger.CreditDelivery(ctx, tx, *delivery.CourierID, delivery.Fee); err != nil {
					return err
				}
			case enums.DeliveryStatusCancelled:
				if err := s.ledger.RecordCancellation(ctx, tx, *delivery.CourierID); err != nil {
					return err
				}
			}
		}

		var actorID *uuid.UUID
		if input.ActorUserID != uuid.Nil {
			actorID = &input.ActorUserID
		}
		historyEvent := &models.DeliveryEvent{
			DeliveryID: delivery.ID,
			FromStatus: delivery.Status,
			ToStatus:   input.NextStatus,
			ActorID:    actorID,
			Note:       input.Note,
		}
		if err := repo.AppendEvent(ctx, historyEvent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append delivery event")
		}

		changed := outbox.DomainEvent{
			EventType:     enums.EventDeliveryStatusChanged,
			AggregateType: enums.AggregateDelivery,
			AggregateID:   delivery.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: DeliveryStatusChangedEvent{
				DeliveryID: delivery.ID,
				OrderID:    delivery.OrderID,
				CourierID:  delivery.CourierID,
				FromStatus: delivery.Status,
				ToStatus:   input.NextStatus,
			},
		}
		return s.outbox.Emit(ctx, tx, changed)
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.InvalidateDelivery(ctx, input.DeliveryID.String())
	return s.reload(ctx, input.DeliveryID)
}

// Delete removes a delivery and clears the order's reference to it in the
// same transaction.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
		}
		if err := repo.UnlinkOrder(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlink order")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete delivery")
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.cache.InvalidateDelivery(ctx, id.String())
	return nil
}

func (s *service) Distance(start, end geo.Point) float64 {
	return geo.DistanceKm(start, end)
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	delivery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload delivery")
	}
	return delivery, nil
}

func validCoords(p geo.Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func buildActor(userID uuid.UUID, role string) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role}
}
