package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/souqly/souqly-backend/api/routes"
	"github.com/souqly/souqly-backend/internal/couriers"
	"github.com/souqly/souqly-backend/internal/deliveries"
	"github.com/souqly/souqly-backend/internal/notifications"
	"github.com/souqly/souqly-backend/internal/orders"
	"github.com/souqly/souqly-backend/internal/products"
	"github.com/souqly/souqly-backend/internal/promotions"
	"github.com/souqly/souqly-backend/internal/tickets"
	"github.com/souqly/souqly-backend/internal/users"
	"github.com/souqly/souqly-backend/pkg/config"
	"github.com/souqly/souqly-backend/pkg/db"
	"github.com/souqly/souqly-backend/pkg/instance"
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/migrate"
	"github.com/souqly/souqly-backend/pkg/outbox"
	"github.com/souqly/souqly-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	usersRepo := users.NewRepository(conn)
	productsRepo := products.NewRepository(conn)
	promotionsRepo := promotions.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	deliveriesRepo := deliveries.NewRepository(conn)
	couriersRepo := couriers.NewRepository(conn)
	ticketsRepo := tickets.NewRepository(conn)
	notificationsRepo := notifications.NewRepository(conn)

	usersService, err := users.NewService(users.ServiceParams{
		Repo:           usersRepo,
		Couriers:       couriersRepo,
		TxRunner:       dbClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	promotionsService, err := promotions.NewService(promotionsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create promotions service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(
		ordersRepo,
		dbClient,
		outboxService,
		products.NewStockKeeper(),
		productsRepo,
		promotionsService,
		promotions.NewRedeemer(promotionsRepo),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	deliveriesService, err := deliveries.NewService(
		deliveriesRepo,
		dbClient,
		outboxService,
		redisClient,
		couriersRepo,
		couriers.NewLedger(),
		ordersRepo,
		cfg.Cache.DeliveryTTL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create deliveries service", err)
		os.Exit(1)
	}

	couriersService, err := couriers.NewService(couriersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create couriers service", err)
		os.Exit(1)
	}

	ticketsService, err := tickets.NewService(ticketsRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create tickets service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			usersService,
			productsService,
			promotionsService,
			ordersService,
			deliveriesService,
			couriersService,
			ticketsService,
			notificationsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
