package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/outbox"
	"github.com/souqly/souqly-backend/pkg/outbox/idempotency"
)

const marketplaceNotificationConsumer = "marketplace-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and turns them into in-app notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a marketplace notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping unknown event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, marketplaceNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, marketplaceNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderCreated:
		var payload orderEventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, logCtx, payload.MerchantID, enums.NotificationTypeOrderAlert,
			"New order received",
			fmt.Sprintf("Order %s was placed against your inventory.", payload.OrderID))
	case enums.EventOrderStatusChanged, enums.EventOrderCompleted:
		var payload orderStatusPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, logCtx, payload.ClientID, enums.NotificationTypeOrderAlert,
			"Order update",
			fmt.Sprintf("Order %s is now %s.", payload.OrderID, payload.ToStatus))
	case enums.EventOrderCancelled:
		var payload orderStatusPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		if err := c.notify(ctx, logCtx, payload.ClientID, enums.NotificationTypeOrderAlert,
			"Order cancelled",
			fmt.Sprintf("Order %s has been cancelled.", payload.OrderID)); err != nil {
			return err
		}
		return c.notify(ctx, logCtx, payload.MerchantID, enums.NotificationTypeOrderAlert,
			"Order cancelled",
			fmt.Sprintf("Order %s was cancelled and its stock restored.", payload.OrderID))
	case enums.EventDeliveryAccepted:
		var payload deliveryEventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, logCtx, payload.CourierID, enums.NotificationTypeDeliveryAlert,
			"Delivery assigned",
			fmt.Sprintf("You are assigned to delivery %s.", payload.DeliveryID))
	case enums.EventDeliveryStatusChanged:
		var payload deliveryStatusPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		if payload.CourierID == nil {
			c.logg.Info(logCtx, "delivery has no courier, skipping")
			return nil
		}
		return c.notify(ctx, logCtx, *payload.CourierID, enums.NotificationTypeDeliveryAlert,
			"Delivery update",
			fmt.Sprintf("Delivery %s is now %s.", payload.DeliveryID, payload.ToStatus))
	case enums.EventTicketStatusChanged:
		var payload ticketStatusPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, logCtx, payload.ClientID, enums.NotificationTypeSupportReply,
			"Support ticket update",
			fmt.Sprintf("Your ticket is now %s.", payload.ToStatus))
	default:
		c.logg.Info(logCtx, "event type not handled")
		return nil
	}
}

func (c *Consumer) notify(ctx context.Context, logCtx context.Context, userID uuid.UUID, kind enums.NotificationType, title, body string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("notification target missing")
	}
	notification := &models.Notification{
		UserID: userID,
		Type:   kind,
		Title:  title,
		Body:   body,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "notification created")
	return nil
}

type orderEventPayload struct {
	OrderID    uuid.UUID `json:"order_id"`
	ClientID   uuid.UUID `json:"client_id"`
	MerchantID uuid.UUID `json:"merchant_id"`
}

type orderStatusPayload struct {
	OrderID    uuid.UUID         `json:"order_id"`
	ClientID   uuid.UUID         `json:"client_id"`
	MerchantID uuid.UUID         `json:"merchant_id"`
	ToStatus   enums.OrderStatus `json:"to_status"`
}

type deliveryEventPayload struct {
	DeliveryID uuid.UUID `json:"delivery_id"`
	OrderID    uuid.UUID `json:"order_id"`
	CourierID  uuid.UUID `json:"courier_id"`
}

type deliveryStatusPayload struct {
	DeliveryID uuid.UUID            `json:"delivery_id"`
	CourierID  *uuid.UUID           `json:"courier_id,omitempty"`
	ToStatus   enums.DeliveryStatus `json:"to_status"`
}

type ticketStatusPayload struct {
	TicketID uuid.UUID          `json:"ticket_id"`
	ClientID uuid.UUID          `json:"client_id"`
	ToStatus enums.TicketStatus `json:"to_status"`
}
