package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/config"
	"github.com/souqly/souqly-backend/pkg/db"
	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/logger"
)

// AllModels lists every persisted model in dependency order.
func AllModels() []any {
	return []any{
		&models.User{},
		&models.Courier{},
		&models.Product{},
		&models.Promotion{},
		&models.PromotionRedemption{},
		&models.Order{},
		&models.OrderLineItem{},
		&models.Payment{},
		&models.Delivery{},
		&models.DeliveryEvent{},
		&models.SupportTicket{},
		&models.TicketMessage{},
		&models.Notification{},
		&models.OutboxEvent{},
	}
}

// Run applies the schema for all registered models.
func Run(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db connection is required")
	}
	if err := conn.WithContext(ctx).AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("running automigrate: %w", err)
	}
	return nil
}

// MaybeRunDev executes migrations automatically when the app runs in dev mode
// with auto-migrate enabled.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.App.AutoMigrate {
		return nil
	}

	logg.Info(ctx, "running schema migrations (dev auto-run)")
	if err := Run(ctx, client.DB()); err != nil {
		return err
	}
	logg.Info(ctx, "schema migrations completed")
	return nil
}
