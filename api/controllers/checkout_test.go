package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarly/checkout-backend/api/middleware"
	"github.com/bazaarly/checkout-backend/internal/cart"
	checkoutsvc "github.com/bazaarly/checkout-backend/internal/checkout"
	"github.com/bazaarly/checkout-backend/internal/orders"
	"github.com/bazaarly/checkout-backend/pkg/config"
	"github.com/bazaarly/checkout-backend/pkg/db/models"
	"github.com/bazaarly/checkout-backend/pkg/enums"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
	"github.com/bazaarly/checkout-backend/pkg/logger"
	"github.com/bazaarly/checkout-backend/pkg/types"
)

type stubCartReader struct {
	snapshot *cart.Snapshot
}

func (s *stubCartReader) Snapshot(_ context.Context, userID uuid.UUID) (*cart.Snapshot, error) {
	if s.snapshot == nil {
		return &cart.Snapshot{UserID: userID}, nil
	}
	return s.snapshot, nil
}

type stubAddressProvider struct {
	known map[uuid.UUID]*models.Address
}

func (s *stubAddressProvider) Get(_ context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if addr, ok := s.known[addressID]; ok {
		return addr, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
}

func (s *stubAddressProvider) List(_ context.Context, _ uuid.UUID) ([]models.Address, error) {
	out := make([]models.Address, 0, len(s.known))
	for _, addr := range s.known {
		out = append(out, *addr)
	}
	return out, nil
}

type stubCouponResolver struct{}

func (stubCouponResolver) Resolve(_ context.Context, _ uuid.UUID, code string) (*models.Coupon, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("coupon %q not found", code))
}

type stubPlacer struct {
	lastPlace *orders.PlaceInput
}

func (s *stubPlacer) Place(_ context.Context, input orders.PlaceInput) (*orders.PlaceResult, error) {
	s.lastPlace = &input
	result := &orders.PlaceResult{
		PlacementGroupID: uuid.New(),
		AmountPaise:      input.TotalPaise,
	}
	for range input.Shops {
		result.OrderIDs = append(result.OrderIDs, uuid.New())
	}
	return result, nil
}

func (s *stubPlacer) MarkPaid(context.Context, orders.MarkPaidInput) error { return nil }

func (s *stubPlacer) MarkPaymentFailed(context.Context, uuid.UUID, string, string) error {
	return nil
}

type controllerFixture struct {
	svc    *checkoutsvc.Service
	logg   *logger.Logger
	userID uuid.UUID
	addrID uuid.UUID
	placer *stubPlacer
}

func newControllerFixture(t *testing.T, items []cart.Item) *controllerFixture {
	t.Helper()
	userID := uuid.New()
	addrID := uuid.New()
	placer := &stubPlacer{}
	logg := logger.New(logger.Options{ServiceName: "controllers-test"})

	svc, err := checkoutsvc.NewService(
		&stubCartReader{snapshot: &cart.Snapshot{UserID: userID, Items: items}},
		&stubAddressProvider{known: map[uuid.UUID]*models.Address{
			addrID: {ID: addrID, UserID: userID, Line1: "14 MG Road", City: "Bengaluru", State: "KA", PostalCode: "560001", Country: "IN"},
		}},
		stubCouponResolver{},
		checkoutsvc.NewMemorySessionStore(),
		placer,
		nil,
		config.PricingConfig{TaxRatePercent: 18, FreeShippingThresholdPaise: 500000, FlatShippingFeePaise: 10000, Currency: "INR"},
		nil,
		logg,
	)
	require.NoError(t, err)
	return &controllerFixture{svc: svc, logg: logg, userID: userID, addrID: addrID, placer: placer}
}

func fixtureItems() []cart.Item {
	shopID := uuid.New()
	return []cart.Item{{
		ProductID:      uuid.New(),
		ProductName:    "Clay Kulhad Set",
		ShopID:         shopID,
		ShopName:       "Mitti Crafts",
		UnitPricePaise: 100000,
		Quantity:       2,
		LineTotalPaise: 200000,
	}}
}

func (f *controllerFixture) request(method, target string, body any) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), f.userID.String())
	ctx = middleware.WithIdentity(ctx, "ravi@example.com", "Ravi Kumar")
	return req.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	data, ok := body.Data.(map[string]any)
	require.True(t, ok, "expected object payload, got %T", body.Data)
	return data
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestEnterCheckoutCreatesSession(t *testing.T) {
	f := newControllerFixture(t, fixtureItems())
	resp := httptest.NewRecorder()
	EnterCheckout(f.svc, f.logg)(resp, f.request(http.MethodPost, "/api/v1/checkout/session", nil))

	require.Equal(t, http.StatusCreated, resp.Code)
	data := decodeEnvelope(t, resp)
	totals, ok := data["totals"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(200000), totals["subtotalPaise"])
	assert.Equal(t, float64(10000), totals["shippingPaise"])
	assert.Equal(t, float64(36000), totals["taxPaise"])
	assert.Equal(t, float64(246000), totals["grandTotalPaise"])
}

func TestEnterCheckoutEmptyCartRedirectsToCart(t *testing.T) {
	f := newControllerFixture(t, nil)
	resp := httptest.NewRecorder()
	EnterCheckout(f.svc, f.logg)(resp, f.request(http.MethodPost, "/api/v1/checkout/session", nil))

	require.Equal(t, http.StatusConflict, resp.Code)
	apiErr := decodeError(t, resp)
	assert.Equal(t, string(pkgerrors.CodeConflict), apiErr.Code)
	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, checkoutsvc.CartRoute, details["redirect"])
}

func TestCheckoutHandlersRejectMissingUser(t *testing.T) {
	f := newControllerFixture(t, fixtureItems())
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/session", nil)
	EnterCheckout(f.svc, f.logg)(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCheckoutCODPlacementEndToEnd(t *testing.T) {
	f := newControllerFixture(t, fixtureItems())

	resp := httptest.NewRecorder()
	EnterCheckout(f.svc, f.logg)(resp, f.request(http.MethodPost, "/api/v1/checkout/session", nil))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = httptest.NewRecorder()
	SetCheckoutAddresses(f.svc, f.logg)(resp, f.request(http.MethodPut, "/api/v1/checkout/session/address", map[string]any{
		"shipping_address_id":      f.addrID,
		"billing_same_as_shipping": true,
	}))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	AdvanceCheckout(f.svc, f.logg)(resp, f.request(http.MethodPost, "/api/v1/checkout/session/advance", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	SetCheckoutPaymentMethod(f.svc, f.logg)(resp, f.request(http.MethodPut, "/api/v1/checkout/session/payment-method", map[string]any{
		"method": "cod",
	}))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	AdvanceCheckout(f.svc, f.logg)(resp, f.request(http.MethodPost, "/api/v1/checkout/session/advance", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	PlaceCheckoutOrder(f.svc, f.logg)(resp, f.request(http.MethodPost, "/api/v1/checkout/orders", nil))
	require.Equal(t, http.StatusCreated, resp.Code)

	data := decodeEnvelope(t, resp)
	redirect, ok := data["redirect"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(redirect, "/user/orders/"))
	assert.Contains(t, redirect, "success=true")
	assert.Contains(t, redirect, "multi=false")
	require.NotNil(t, f.placer.lastPlace)
	assert.Equal(t, int64(246000), f.placer.lastPlace.TotalPaise)
	assert.Equal(t, enums.PaymentMethodCOD, f.placer.lastPlace.PaymentMethod)
}

func TestVerifyCheckoutPaymentRejectsBadBody(t *testing.T) {
	f := newControllerFixture(t, fixtureItems())
	resp := httptest.NewRecorder()
	VerifyCheckoutPayment(f.svc, f.logg)(resp, f.request(http.MethodPost, "/api/v1/checkout/payments/verify", map[string]any{
		"razorpay_order_id": "order_rzp_1",
	}))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	apiErr := decodeError(t, resp)
	assert.Equal(t, string(pkgerrors.CodeValidation), apiErr.Code)
}

func TestSetCheckoutPaymentMethodRejectsUnknownMethod(t *testing.T) {
	f := newControllerFixture(t, fixtureItems())
	resp := httptest.NewRecorder()
	SetCheckoutPaymentMethod(f.svc, f.logg)(resp, f.request(http.MethodPut, "/api/v1/checkout/session/payment-method", map[string]any{
		"method": "crypto",
	}))

	require.Equal(t, http.StatusBadRequest, resp.Code)
}
