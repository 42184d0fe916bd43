package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/souqly/souqly-backend/internal/couriers"
	"github.com/souqly/souqly-backend/internal/deliveries"
	"github.com/souqly/souqly-backend/internal/notifications"
	"github.com/souqly/souqly-backend/internal/orders"
	"github.com/souqly/souqly-backend/internal/products"
	"github.com/souqly/souqly-backend/internal/promotions"
	"github.com/souqly/souqly-backend/internal/tickets"
	"github.com/souqly/souqly-backend/internal/users"
	pkgAuth "github.com/souqly/souqly-backend/pkg/auth"
	"github.com/souqly/souqly-backend/pkg/config"
	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	"github.com/souqly/souqly-backend/pkg/geo"
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) Register(ctx context.Context, input users.RegisterInput) (*users.AuthResult, error) {
	return &users.AuthResult{}, nil
}

func (stubUsersService) Login(ctx context.Context, input users.LoginInput) (*users.AuthResult, error) {
	return &users.AuthResult{}, nil
}

func (stubUsersService) Get(ctx context.Context, id uuid.UUID) (*users.UserView, error) {
	panic("unimplemented")
}

type stubProductsService struct{}

func (stubProductsService) Create(ctx context.Context, input products.CreateInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProductsService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*products.ProductList, error) {
	return &products.ProductList{}, nil
}

func (stubProductsService) Update(ctx context.Context, input products.UpdateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) AdjustStock(ctx context.Context, input products.AdjustStockInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) SetActive(ctx context.Context, merchantID, productID uuid.UUID, active bool) error {
	panic("unimplemented")
}

type stubPromotionsService struct{}

func (stubPromotionsService) Create(ctx context.Context, input promotions.CreateInput) (*models.Promotion, error) {
	panic("unimplemented")
}

func (stubPromotionsService) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	panic("unimplemented")
}

func (stubPromotionsService) GetByCode(ctx context.Context, code string) (*models.Promotion, error) {
	panic("unimplemented")
}

func (stubPromotionsService) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*promotions.PromotionList, error) {
	panic("unimplemented")
}

func (stubPromotionsService) SetActive(ctx context.Context, merchantID, promotionID uuid.UUID, active bool) error {
	panic("unimplemented")
}

func (stubPromotionsService) FindBest(ctx context.Context, input promotions.FindBestInput) (*promotions.BestPromotion, error) {
	return nil, nil
}

type stubOrdersService struct {
	placed func(ctx context.Context, input orders.PlaceOrderInput) (*models.Order, error)
}

func (s stubOrdersService) PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*models.Order, error) {
	if s.placed != nil {
		return s.placed(ctx, input)
	}
	return &models.Order{}, nil
}

func (stubOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) ListForMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, input orders.UpdateStatusInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Cancel(ctx context.Context, input orders.CancelInput) (*models.Order, error) {
	panic("unimplemented")
}

type stubDeliveriesService struct{}

func (stubDeliveriesService) Dispatch(ctx context.Context, input deliveries.DispatchInput) (*models.Delivery, error) {
	panic("unimplemented")
}

func (stubDeliveriesService) Get(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	panic("unimplemented")
}

func (stubDeliveriesService) AvailableForCourier(ctx context.Context, courierID uuid.UUID) ([]deliveries.AvailableDelivery, error) {
	return nil, nil
}

func (stubDeliveriesService) ListForCourier(ctx context.Context, courierID uuid.UUID) ([]models.Delivery, error) {
	return nil, nil
}

func (stubDeliveriesService) Accept(ctx context.Context, input deliveries.AcceptInput) (*models.Delivery, error) {
	panic("unimplemented")
}

func (stubDeliveriesService) UpdateStatus(ctx context.Context, input deliveries.UpdateStatusInput) (*models.Delivery, error) {
	panic("unimplemented")
}

func (stubDeliveriesService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubDeliveriesService) Distance(start, end geo.Point) float64 {
	return 0
}

type stubCouriersService struct{}

func (stubCouriersService) EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.Courier, error) {
	panic("unimplemented")
}

func (stubCouriersService) Profile(ctx context.Context, userID uuid.UUID) (*models.Courier, error) {
	return &models.Courier{}, nil
}

func (stubCouriersService) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Courier, error) {
	panic("unimplemented")
}

func (stubCouriersService) UpdateLocation(ctx context.Context, input couriers.UpdateLocationInput) (*models.Courier, error) {
	panic("unimplemented")
}

func (stubCouriersService) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) (*models.Courier, error) {
	panic("unimplemented")
}

type stubTicketsService struct{}

func (stubTicketsService) Open(ctx context.Context, input tickets.OpenInput) (*models.SupportTicket, error) {
	panic("unimplemented")
}

func (stubTicketsService) Get(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	panic("unimplemented")
}

func (stubTicketsService) ListForClient(ctx context.Context, clientID uuid.UUID, params pagination.Params) (*tickets.TicketList, error) {
	return &tickets.TicketList{}, nil
}

func (stubTicketsService) ListDesk(ctx context.Context, params pagination.Params, filters tickets.ListFilters) (*tickets.TicketList, error) {
	return &tickets.TicketList{}, nil
}

func (stubTicketsService) Assign(ctx context.Context, input tickets.AssignInput) (*models.SupportTicket, error) {
	panic("unimplemented")
}

func (stubTicketsService) Respond(ctx context.Context, input tickets.RespondInput) (*models.SupportTicket, error) {
	panic("unimplemented")
}

func (stubTicketsService) UpdateStatus(ctx context.Context, input tickets.UpdateStatusInput) (*models.SupportTicket, error) {
	panic("unimplemented")
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "souqly-test",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		stubPinger{},
		stubUsersService{},
		stubProductsService{},
		stubPromotionsService{},
		stubOrdersService{},
		stubDeliveriesService{},
		stubCouriersService{},
		stubTicketsService{},
		stubNotificationsService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())

	live := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, live)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}

	ready := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, ready)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for readiness got %d", resp.Code)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestLoginIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"email":"amina@example.com","password":"s3cret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for login got %d", resp.Code)
	}
}

func TestPlaceOrderRequiresClientPermission(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"merchant_id":"` + uuid.NewString() + `","items":[{"product_id":"` + uuid.NewString() + `","qty":2}],"delivery_address":"12 Rue des Orangers, Casablanca"}`

	livreur := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	livreur.Header.Set("Content-Type", "application/json")
	livreur.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleLivreur))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, livreur)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for livreur placing orders got %d", resp.Code)
	}

	client := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	client.Header.Set("Content-Type", "application/json")
	client.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, client)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for client placing order got %d", resp.Code)
	}
}

func TestPlaceOrderAcceptsClientDeclaredPricing(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"merchant_id":"` + uuid.NewString() + `","items":[{"product_id":"` + uuid.NewString() + `","qty":2,"price":"19.99"}],"totalPrice":"39.98","delivery_address":"12 Rue des Orangers, Casablanca"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for body with declared prices got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestProductManagementRequiresMerchantPermission(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"name":"Menthe fraiche","price":"12.50","stock":40}`

	client := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	client.Header.Set("Content-Type", "application/json")
	client.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, client)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client creating products got %d", resp.Code)
	}

	merchant := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	merchant.Header.Set("Content-Type", "application/json")
	merchant.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleMerchant))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, merchant)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for merchant creating product got %d", resp.Code)
	}
}

func TestCourierRoutesRequireLivreurPermission(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	client := httptest.NewRequest(http.MethodGet, "/api/v1/couriers/me", nil)
	client.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, client)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for client on courier profile got %d", resp.Code)
	}

	livreur := httptest.NewRequest(http.MethodGet, "/api/v1/couriers/me", nil)
	livreur.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleLivreur))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, livreur)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for livreur on courier profile got %d", resp.Code)
	}
}

func TestDeliveryDeleteIsAdminOnly(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/deliveries/" + uuid.NewString()

	merchant := httptest.NewRequest(http.MethodDelete, target, nil)
	merchant.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleMerchant))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, merchant)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for merchant deleting delivery got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodDelete, target, nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin deleting delivery got %d", resp.Code)
	}
}

func TestMalformedJSONRejected(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleClient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body got %d", resp.Code)
	}
}
