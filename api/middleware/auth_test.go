package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bazaarly/checkout-backend/pkg/auth"
	"github.com/bazaarly/checkout-backend/pkg/config"
	"github.com/bazaarly/checkout-backend/pkg/types"
)

const testLoginRedirect = "/login?redirect=/checkout"

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "bazaarly-test", ExpirationMinutes: 60}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID: userID,
		Email:  "ravi@example.com",
		Name:   "Ravi Kumar",
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(jwtTestConfig(), testLoginRedirect, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	details, ok := body.Error.Details.(map[string]any)
	if !ok {
		t.Fatalf("expected redirect details, got %T", body.Error.Details)
	}
	if details["redirect"] != testLoginRedirect {
		t.Fatalf("expected login redirect, got %v", details["redirect"])
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(jwtTestConfig(), testLoginRedirect, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	cfg := jwtTestConfig()
	userID := uuid.New()
	token := mintTestToken(t, cfg, userID)

	var captured struct {
		user  string
		email string
		name  string
	}
	handler := Auth(cfg, testLoginRedirect, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.user = UserIDFromContext(r.Context())
		captured.email = EmailFromContext(r.Context())
		captured.name = NameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.user != userID.String() {
		t.Fatalf("expected user id %s, got %s", userID, captured.user)
	}
	if captured.email != "ravi@example.com" || captured.name != "Ravi Kumar" {
		t.Fatalf("unexpected identity %q %q", captured.email, captured.name)
	}
}
