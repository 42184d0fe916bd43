package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/souqly/souqly-backend/api/controllers"
	"github.com/souqly/souqly-backend/api/middleware"
	"github.com/souqly/souqly-backend/internal/access"
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
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	usersService users.Service,
	productsService products.Service,
	promotionsService promotions.Service,
	ordersService orders.Service,
	deliveriesService deliveries.Service,
	couriersService couriers.Service,
	ticketsService tickets.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(usersService, logg))
		r.Post("/login", controllers.AuthLogin(usersService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequirePermission(access.PermOrderPlace, logg)).
				Post("/", controllers.PlaceOrder(ordersService, logg))
			r.With(middleware.RequirePermission(access.PermOrderRead, logg)).
				Get("/", controllers.ListOrders(ordersService, logg))
			r.With(middleware.RequirePermission(access.PermOrderRead, logg)).
				Get("/{orderId}", controllers.GetOrder(ordersService, logg))
			r.With(middleware.RequirePermission(access.PermOrderUpdate, logg)).
				Patch("/{orderId}/status", controllers.UpdateOrderStatus(ordersService, logg))
			r.With(middleware.RequirePermission(access.PermOrderCancel, logg)).
				Post("/{orderId}/cancel", controllers.CancelOrder(ordersService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.With(middleware.RequirePermission(access.PermProductRead, logg)).
				Get("/", controllers.ListProducts(productsService, logg))
			r.With(middleware.RequirePermission(access.PermProductRead, logg)).
				Get("/{productId}", controllers.GetProduct(productsService, logg))
			r.With(middleware.RequirePermission(access.PermProductManage, logg)).
				Post("/", controllers.CreateProduct(productsService, logg))
			r.With(middleware.RequirePermission(access.PermProductManage, logg)).
				Patch("/{productId}", controllers.UpdateProduct(productsService, logg))
			r.With(middleware.RequirePermission(access.PermProductManage, logg)).
				Post("/{productId}/stock", controllers.AdjustProductStock(productsService, logg))
			r.With(middleware.RequirePermission(access.PermProductManage, logg)).
				Post("/{productId}/active", controllers.SetProductActive(productsService, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.With(middleware.RequirePermission(access.PermPromotionRead, logg)).
				Get("/best", controllers.BestPromotion(promotionsService, logg))
			r.With(middleware.RequirePermission(access.PermPromotionWrite, logg)).
				Get("/", controllers.ListPromotions(promotionsService, logg))
			r.With(middleware.RequirePermission(access.PermPromotionWrite, logg)).
				Post("/", controllers.CreatePromotion(promotionsService, logg))
			r.With(middleware.RequirePermission(access.PermPromotionWrite, logg)).
				Post("/{promotionId}/activate", controllers.SetPromotionActive(promotionsService, logg, true))
			r.With(middleware.RequirePermission(access.PermPromotionWrite, logg)).
				Post("/{promotionId}/deactivate", controllers.SetPromotionActive(promotionsService, logg, false))
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.With(middleware.RequirePermission(access.PermDeliveryDispatch, logg)).
				Post("/", controllers.DispatchDelivery(deliveriesService, logg))
			r.With(middleware.RequirePermission(access.PermDeliveryAccept, logg)).
				Get("/available", controllers.AvailableDeliveries(deliveriesService, logg))
			r.With(middleware.RequirePermission(access.PermDeliveryRead, logg)).
				Get("/mine", controllers.MyDeliveries(deliveriesService, logg))
			r.With(middleware.RequirePermission(access.PermDeliveryRead, logg)).
				Post("/distance", controllers.DeliveryDistance(deliveriesService, logg))
			r.With(middleware.RequirePermission(access.PermDeliveryRead, logg)).
				Get("/{deliveryId}", controllers.GetDelivery(deliveriesService, logg))
			r.With(middleware.RequirePermission(access.PermDeliveryAccept, logg)).
				Post("/{deliveryId}/accept", controllers.AcceptDelivery(deliveriesService, logg))
			r.With(middleware.RequirePermission(access.PermDeliveryUpdate, logg)).
				Patch("/{deliveryId}/status", controllers.UpdateDeliveryStatus(deliveriesService, logg))
			r.With(middleware.RequirePermission(access.PermDeliveryDelete, logg)).
				Delete("/{deliveryId}", controllers.DeleteDelivery(deliveriesService, logg))
		})

		r.Route("/couriers/me", func(r chi.Router) {
			r.Use(middleware.RequirePermission(access.PermCourierSelf, logg))
			r.Get("/", controllers.CourierProfile(couriersService, logg))
			r.Patch("/location", controllers.UpdateCourierLocation(couriersService, logg))
			r.Patch("/availability", controllers.SetCourierAvailability(couriersService, logg))
		})

		r.Route("/tickets", func(r chi.Router) {
			r.With(middleware.RequirePermission(access.PermTicketOpen, logg)).
				Post("/", controllers.OpenTicket(ticketsService, logg))
			r.With(middleware.RequirePermission(access.PermTicketOpen, logg)).
				Get("/", controllers.ListTickets(ticketsService, logg))
			r.With(middleware.RequirePermission(access.PermTicketOpen, logg)).
				Get("/{ticketId}", controllers.GetTicket(ticketsService, logg))
			r.With(middleware.RequirePermission(access.PermTicketManage, logg)).
				Post("/{ticketId}/assign", controllers.AssignTicket(ticketsService, logg))
			r.With(middleware.RequirePermission(access.PermTicketManage, logg)).
				Post("/{ticketId}/respond", controllers.RespondTicket(ticketsService, logg))
			r.With(middleware.RequirePermission(access.PermTicketManage, logg)).
				Patch("/{ticketId}/status", controllers.UpdateTicketStatus(ticketsService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequirePermission(access.PermNotifyRead, logg))
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
