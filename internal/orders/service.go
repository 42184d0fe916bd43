package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/internal/promotions"
	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/outbox"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockKeeper interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type promotionResolver interface {
	GetByCode(ctx context.Context, code string) (*models.Promotion, error)
}

type promotionRedeemer interface {
	Redeem(ctx context.Context, tx *gorm.DB, input promotions.RedeemInput) error
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	stock    stockKeeper
	products productLoader
	promos   promotionResolver
	redeemer promotionRedeemer
}

// NewService builds the order workflow service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	publisher outboxPublisher,
	stock stockKeeper,
	products productLoader,
	promos promotionResolver,
	redeemer promotionRedeemer,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promotion resolver required")
	}
	if redeemer == nil {
		return nil, fmt.Errorf("promotion redeemer required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   publisher,
		stock:    stock,
		products: products,
		promos:   promos,
		redeemer: redeemer,
	}, nil
}

// PlaceOrder runs the placement workflow in a single transaction: product and
// promotion checks, server-side total, order/items/payment rows, guarded stock
// decrements, promotion redemption and the created event. Any failure rolls
// the whole placement back.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required on every item")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()

		subtotal := decimal.Zero
		lineItems := make([]models.OrderLineItem, 0, len(input.Items))
		productIDs := make([]uuid.UUID, 0, len(input.Items))
		for _, item := range input.Items {
			product, err := s.products.FindByID(ctx, item.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if product.MerchantID != input.MerchantID {
				return pkgerrors.New(pkgerrors.CodeValidation, "product does not belong to merchant")
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, "product is not active")
			}
			if product.Stock < item.Qty {
				return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
					WithDetails(map[string]any{"product_id": product.ID})
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
			subtotal = subtotal.Add(lineTotal)
			productIDs = append(productIDs, product.ID)
			lineItems = append(lineItems, models.OrderLineItem{
				ID:        uuid.New(),
				ProductID: product.ID,
				Name:      product.Name,
				UnitPrice: product.Price,
				Qty:       item.Qty,
				LineTotal: lineTotal,
			})
		}

		discount := decimal.Zero
		var promo *models.Promotion
		if input.PromoCode != nil && strings.TrimSpace(*input.PromoCode) != "" {
			var err error
			promo, err = s.promos.GetByCode(ctx, *input.PromoCode)
			if err != nil {
				return err
			}
			if promo.MerchantID != input.MerchantID {
				return pkgerrors.New(pkgerrors.CodeValidation, "promotion belongs to another merchant")
			}
			if !promotions.IsValid(promo, now) {
				return pkgerrors.New(pkgerrors.CodeValidation, "promotion is not valid")
			}
			if !promoApplies(promo, input.Region, productIDs) {
				return pkgerrors.New(pkgerrors.CodeValidation, "promotion does not apply to this order")
			}
			discount = promotions.ComputeDiscount(promo, subtotal)
		}

		total := subtotal.Sub(discount)
		if total.IsNegative() {
			total = decimal.Zero
		}

		order := &models.Order{
			ID:              uuid.New(),
			ClientID:        input.ClientID,
			MerchantID:      input.MerchantID,
			Status:          enums.OrderStatusPending,
			Subtotal:        subtotal,
			Discount:        discount,
			Total:           total,
			DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
			Note:            input.Note,
		}
		if promo != nil {
			order.PromotionID = &promo.ID
		}
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for i := range lineItems {
			lineItems[i].OrderID = order.ID
		}
		if err := repo.CreateLineItems(ctx, lineItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create line items")
		}

		payment := &models.Payment{
			ID:      uuid.New(),
			OrderID: order.ID,
			Amount:  total,
			Status:  enums.PaymentStatusPending,
		}
		if _, err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		for _, item := range lineItems {
			if err := s.stock.Reserve(ctx, tx, item.ProductID, item.Qty); err != nil {
				return err
			}
		}

		if promo != nil {
			err := s.redeemer.Redeem(ctx, tx, promotions.RedeemInput{
				PromotionID: promo.ID,
				OrderID:     order.ID,
				ClientID:    input.ClientID,
				Discount:    discount,
				At:          now,
			})
			if err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.ClientID, input.ActorRole),
			Data: OrderCreatedEvent{
				OrderID:    order.ID,
				ClientID:   order.ClientID,
				MerchantID: order.MerchantID,
				Subtotal:   subtotal,
				Discount:   discount,
				Total:      total,
				PromoCode:  input.PromoCode,
				ItemCount:  len(lineItems),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}

		order.Items = lineItems
		order.Payment = payment
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id required")
	}
	list, err := s.repo.ListForClient(ctx, clientID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	list, err := s.repo.ListForMerchant(ctx, merchantID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// UpdateStatus applies one lifecycle transition. Requesting the current status
// is a no-op; a pair outside the transition table is a state conflict.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.NextStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if input.NextStatus == enums.OrderStatusCancelled {
		return s.Cancel(ctx, CancelInput{
			OrderID:     input.OrderID,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == input.NextStatus {
			return nil
		}
		if !CanTransition(order.Status, input.NextStatus) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": input.NextStatus})
		}

		now := time.Now().UTC()
		updates := map[string]any{"status": input.NextStatus}
		if input.NextStatus == enums.OrderStatusCompleted {
			updates["completed_at"] = now
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if input.NextStatus == enums.OrderStatusCompleted {
			err := repo.UpdatePayment(ctx, order.ID, map[string]any{
				"status":  enums.PaymentStatusPaid,
				"paid_at": now,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment paid")
			}
		}

		statusEvent := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: OrderStatusChangedEvent{
				OrderID:    order.ID,
				ClientID:   order.ClientID,
				MerchantID: order.MerchantID,
				FromStatus: order.Status,
				ToStatus:   input.NextStatus,
			},
		}
		if err := s.outbox.Emit(ctx, tx, statusEvent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status changed")
		}

		if input.NextStatus == enums.OrderStatusCompleted {
			completedEvent := outbox.DomainEvent{
				EventType:     enums.EventOrderCompleted,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Actor:         buildActor(input.ActorUserID, input.ActorRole),
				Data: OrderStatusChangedEvent{
					OrderID:    order.ID,
					ClientID:   order.ClientID,
					MerchantID: order.MerchantID,
					FromStatus: order.Status,
					ToStatus:   input.NextStatus,
				},
			}
			if err := s.outbox.Emit(ctx, tx, completedEvent); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order completed")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, input.OrderID)
}

// Cancel terminates a non-terminal order: restores stock, flips a paid payment
// to refund_pending and emits the cancellation events, all in one transaction.
// Orders are never hard-deleted.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeValidation, "order is already finalized")
		}

		restocked := 0
		for _, item := range order.Items {
			if err := s.stock.Restore(ctx, tx, item.ProductID, item.Qty); err != nil {
				return err
			}
			restocked += item.Qty
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		refundPending := false
		payment, err := repo.FindPaymentByOrder(ctx, order.ID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment != nil && payment.Status == enums.PaymentStatusPaid {
			err := repo.UpdatePayment(ctx, order.ID, map[string]any{
				"status": enums.PaymentStatusRefundPending,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag refund")
			}
			refundPending = true

			refundEvent := outbox.DomainEvent{
				EventType:     enums.EventRefundRequested,
				AggregateType: enums.AggregatePayment,
				AggregateID:   payment.ID,
				Version:       1,
				Actor:         buildActor(input.ActorUserID, input.ActorRole),
				Data: RefundRequestedEvent{
					OrderID:   order.ID,
					PaymentID: payment.ID,
					Amount:    payment.Amount,
				},
			}
			if err := s.outbox.Emit(ctx, tx, refundEvent); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit refund requested")
			}
		}

		cancelEvent := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: OrderCancelledEvent{
				OrderID:       order.ID,
				ClientID:      order.ClientID,
				MerchantID:    order.MerchantID,
				FromStatus:    order.Status,
				RestockedQty:  restocked,
				RefundPending: refundPending,
			},
		}
		return s.outbox.Emit(ctx, tx, cancelEvent)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, input.OrderID)
}

func promoApplies(promo *models.Promotion, region *string, productIDs []uuid.UUID) bool {
	if region != nil && !promo.AppliesToRegion(*region) {
		return false
	}
	if len(promo.ApplicableProductIDs) == 0 {
		return true
	}
	for _, id := range productIDs {
		if promo.AppliesToProduct(id) {
			return true
		}
	}
	return false
}

func buildActor(userID uuid.UUID, role string) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role}
}
