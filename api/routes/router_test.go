package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sdfoods/restaurant-backend/internal/bids"
	"github.com/sdfoods/restaurant-backend/internal/menu"
	"github.com/sdfoods/restaurant-backend/internal/orders"
	pkgAuth "github.com/sdfoods/restaurant-backend/pkg/auth"
	"github.com/sdfoods/restaurant-backend/pkg/config"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessions struct {
	active bool
}

func (s stubSessions) HasSession(ctx context.Context, userID, sessionID string) (bool, error) {
	return s.active, nil
}

// Embedding the interface keeps the stubs small; calling an unstubbed method
// panics, which the recoverer turns into a 500.
type stubOrdersService struct {
	orders.Service
	chefQueue func(ctx context.Context) ([]models.Order, error)
}

func (s stubOrdersService) ChefQueue(ctx context.Context) ([]models.Order, error) {
	if s.chefQueue != nil {
		return s.chefQueue(ctx)
	}
	return nil, nil
}

type stubBidsService struct {
	bids.Service
}

func (stubBidsService) ListAvailableOrders(ctx context.Context) ([]bids.AvailableOrder, error) {
	return []bids.AvailableOrder{}, nil
}

type stubMenuService struct {
	menu.Service
}

func (stubMenuService) List(ctx context.Context, filters menu.ListFilters) ([]models.MenuItem, error) {
	return []models.MenuItem{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func testParams(cfg *config.Config) Params {
	return Params{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard}),
		Gatherer: prometheus.NewRegistry(),
		DB:       stubPinger{},
		Sessions: stubSessions{active: true},
		Orders:   stubOrdersService{},
		Bids:     stubBidsService{},
		Menu:     stubMenuService{},
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthLive(t *testing.T) {
	router := NewRouter(testParams(testConfig()))
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-SDFoods-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	params := testParams(testConfig())
	params.DB = stubPinger{err: errors.New("connection refused")}
	router := NewRouter(params)

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "db") {
		t.Fatalf("expected failing check in body got %s", resp.Body.String())
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	params := testParams(testConfig())
	params.Gatherer = reg
	params.Metrics = metrics.NewHTTPMetrics(reg)
	router := NewRouter(params)

	serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "/health/live") {
		t.Fatalf("expected live route in metrics output")
	}
}

func TestPrivateRoutesRejectMissingJWT(t *testing.T) {
	router := NewRouter(testParams(testConfig()))
	for _, path := range []string{"/api/users/me", "/api/orders/history", "/api/wallet/balance", "/api/manager/stats"} {
		resp := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token got %d", path, resp.Code)
		}
	}
}

func TestRevokedSessionIsRejected(t *testing.T) {
	cfg := testConfig()
	params := testParams(cfg)
	params.Sessions = stubSessions{active: false}
	router := NewRouter(params)

	req := httptest.NewRequest(http.MethodGet, "/api/chef/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleChef))
	resp := serve(router, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session got %d", resp.Code)
	}
}

func TestChefQueueRequiresChefRole(t *testing.T) {
	cfg := testConfig()
	params := testParams(cfg)
	params.Orders = stubOrdersService{
		chefQueue: func(ctx context.Context) ([]models.Order, error) {
			return []models.Order{{ID: uuid.New(), Status: enums.OrderStatusPending}}, nil
		},
	}
	router := NewRouter(params)

	customer := httptest.NewRequest(http.MethodGet, "/api/chef/orders", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	if resp := serve(router, customer); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	chef := httptest.NewRequest(http.MethodGet, "/api/chef/orders", nil)
	chef.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleChef))
	resp := serve(router, chef)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for chef got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data []orders.OrderDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected 1 queued order got %d", len(envelope.Data))
	}
}

func TestDeliveryGroupRequiresDriverRole(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(testParams(cfg))

	chef := httptest.NewRequest(http.MethodGet, "/api/delivery/orders/available", nil)
	chef.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleChef))
	if resp := serve(router, chef); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for chef got %d", resp.Code)
	}

	driver := httptest.NewRequest(http.MethodGet, "/api/delivery/orders/available", nil)
	driver.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleDriver))
	if resp := serve(router, driver); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for driver got %d", resp.Code)
	}
}

func TestManagerGroupRequiresStaff(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(testParams(cfg))

	for _, role := range []enums.UserRole{enums.UserRoleCustomer, enums.UserRoleChef, enums.UserRoleDriver} {
		req := httptest.NewRequest(http.MethodGet, "/api/manager/bids/pending", nil)
		req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, role))
		if resp := serve(router, req); resp.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 got %d", role, resp.Code)
		}
	}

	// The bids stub does not implement ListPendingBids; anything but 403 proves the gate passed.
	req := httptest.NewRequest(http.MethodGet, "/api/manager/stats", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleManager))
	if resp := serve(router, req); resp.Code == http.StatusForbidden || resp.Code == http.StatusUnauthorized {
		t.Fatalf("expected manager to pass the role gate got %d", resp.Code)
	}
}

func TestMenuIsPublic(t *testing.T) {
	router := NewRouter(testParams(testConfig()))
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/menu", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous menu got %d", resp.Code)
	}
}

func TestMenuWritesRequireKitchenStaff(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(testParams(cfg))

	anon := httptest.NewRequest(http.MethodPost, "/api/menu", strings.NewReader(`{}`))
	if resp := serve(router, anon); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous create got %d", resp.Code)
	}

	customer := httptest.NewRequest(http.MethodPost, "/api/menu", strings.NewReader(`{}`))
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	if resp := serve(router, customer); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer create got %d", resp.Code)
	}
}

func TestChatAskRejectsInvalidTokenButAllowsAnonymous(t *testing.T) {
	router := NewRouter(testParams(testConfig()))

	bad := httptest.NewRequest(http.MethodPost, "/api/chat/ask", strings.NewReader(`{"message":"hours?"}`))
	bad.Header.Set("Authorization", "Bearer not-a-jwt")
	if resp := serve(router, bad); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token got %d", resp.Code)
	}

	// No chat service is wired, so an anonymous request reaches the handler and fails there.
	anon := httptest.NewRequest(http.MethodPost, "/api/chat/ask", strings.NewReader(`{"message":"hours?"}`))
	if resp := serve(router, anon); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from unwired chat service got %d", resp.Code)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := NewRouter(testParams(testConfig()))
	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
