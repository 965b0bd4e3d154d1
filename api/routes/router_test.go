package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bazaarly/checkout-backend/internal/cart"
	checkoutsvc "github.com/bazaarly/checkout-backend/internal/checkout"
	"github.com/bazaarly/checkout-backend/internal/orders"
	pkgAuth "github.com/bazaarly/checkout-backend/pkg/auth"
	"github.com/bazaarly/checkout-backend/pkg/config"
	"github.com/bazaarly/checkout-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
	"github.com/bazaarly/checkout-backend/pkg/logger"
	"github.com/bazaarly/checkout-backend/pkg/redis"
	"github.com/bazaarly/checkout-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubCartReader struct{}

func (stubCartReader) Snapshot(_ context.Context, userID uuid.UUID) (*cart.Snapshot, error) {
	shopID := uuid.New()
	return &cart.Snapshot{
		UserID: userID,
		Items: []cart.Item{{
			ProductID:      uuid.New(),
			ProductName:    "Clay Kulhad Set",
			ShopID:         shopID,
			ShopName:       "Mitti Crafts",
			UnitPricePaise: 100000,
			Quantity:       2,
			LineTotalPaise: 200000,
		}},
	}, nil
}

type stubAddressProvider struct{}

func (stubAddressProvider) Get(_ context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
}

func (stubAddressProvider) List(context.Context, uuid.UUID) ([]models.Address, error) {
	return nil, nil
}

type stubCouponResolver struct{}

func (stubCouponResolver) Resolve(context.Context, uuid.UUID, string) (*models.Coupon, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
}

type stubPlacer struct{}

func (stubPlacer) Place(_ context.Context, input orders.PlaceInput) (*orders.PlaceResult, error) {
	result := &orders.PlaceResult{PlacementGroupID: uuid.New(), AmountPaise: input.TotalPaise}
	for range input.Shops {
		result.OrderIDs = append(result.OrderIDs, uuid.New())
	}
	return result, nil
}

func (stubPlacer) MarkPaid(context.Context, orders.MarkPaidInput) error { return nil }

func (stubPlacer) MarkPaymentFailed(context.Context, uuid.UUID, string, string) error {
	return nil
}

type stubOrdersRepo struct {
	orders.Repository
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "bazaarly-test", ExpirationMinutes: 60},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, registry *prometheus.Registry) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	svc, err := checkoutsvc.NewService(
		stubCartReader{},
		stubAddressProvider{},
		stubCouponResolver{},
		checkoutsvc.NewMemorySessionStore(),
		stubPlacer{},
		nil,
		config.PricingConfig{TaxRatePercent: 18, FreeShippingThresholdPaise: 500000, FlatShippingFeePaise: 10000, Currency: "INR"},
		nil,
		logg,
	)
	if err != nil {
		t.Fatalf("build checkout service: %v", err)
	}
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		registry,
		svc,
		stubAddressProvider{},
		stubOrdersRepo{},
	)
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "ravi@example.com",
		Name:   "Ravi Kumar",
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Bazaarly-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestCheckoutGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/session", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	details, ok := body.Error.Details.(map[string]any)
	if !ok {
		t.Fatalf("expected redirect details, got %T", body.Error.Details)
	}
	if details["redirect"] != checkoutsvc.LoginRoute {
		t.Fatalf("expected login redirect, got %v", details["redirect"])
	}
}

func TestCheckoutSessionRoutesWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, nil)
	token := buildToken(t, cfg)

	enter := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/session", nil)
	enter.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, enter)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 entering checkout got %d", resp.Code)
	}

	current := httptest.NewRequest(http.MethodGet, "/api/v1/checkout/session", nil)
	current.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, current)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 reading session got %d", resp.Code)
	}
}

func TestMetricsRouteRequiresRegistry(t *testing.T) {
	withRegistry := newTestRouter(t, testConfig(), prometheus.NewRegistry())
	resp := httptest.NewRecorder()
	withRegistry.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}

	withoutRegistry := newTestRouter(t, testConfig(), nil)
	resp = httptest.NewRecorder()
	withoutRegistry.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without registry got %d", resp.Code)
	}
}
