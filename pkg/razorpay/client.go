package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bazaarly/checkout-backend/pkg/config"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
	"github.com/bazaarly/checkout-backend/pkg/logger"
)

const (
	defaultBaseURL = "https://api.razorpay.com"
	ordersPath     = "/v1/orders"
	requestTimeout = 15 * time.Second
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")
)

// Client wraps the Razorpay Orders API with centralized auth, logging, and
// error mapping. Signature verification is local HMAC work and never
// touches the network.
type Client struct {
	httpClient *http.Client
	keyID      string
	keySecret  string
	baseURL    string
	logger     *logger.Logger
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		keyID:      keyID,
		keySecret:  keySecret,
		baseURL:    baseURL,
		logger:     logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the public key id the payment widget is opened with.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// Available reports whether the gateway can be used for this process.
func (c *Client) Available() bool {
	return c != nil && c.keyID != "" && c.keySecret != ""
}

type orderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers a gateway order for the given amount (in paise)
// and returns the gateway order id used to open the payment widget.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error) {
	if !c.Available() {
		return "", pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "payment gateway is not configured")
	}
	if amountPaise <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}

	payload, err := json.Marshal(orderRequest{
		Amount:         amountPaise,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway order request")
	}

	c.log(ctx, "request", "create_order", map[string]any{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway order request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway order request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read gateway response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.mapGatewayError(ctx, resp.StatusCode, body)
	}

	var order orderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway order response")
	}
	if order.ID == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "gateway returned no order id")
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"gateway_order_id": order.ID,
		"status":           order.Status,
	})
	return order.ID, nil
}

// VerifySignature checks the success callback signature: HMAC-SHA256 of
// "{orderID}|{paymentID}" keyed with the secret, hex encoded.
func (c *Client) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	if !c.Available() {
		return false
	}
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func (c *Client) mapGatewayError(ctx context.Context, status int, body []byte) error {
	description := "gateway rejected the order"
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Description != "" {
		description = parsed.Error.Description
	}
	c.log(ctx, "error", "create_order", map[string]any{
		"status":      status,
		"description": description,
	})
	code := pkgerrors.CodeDependency
	if status >= 400 && status < 500 {
		code = pkgerrors.CodeValidation
	}
	return pkgerrors.New(code, fmt.Sprintf("gateway: %s", description))
}

func (c *Client) log(ctx context.Context, phase, operation string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	entry := map[string]any{
		"gateway":   "razorpay",
		"phase":     phase,
		"operation": operation,
	}
	for k, v := range fields {
		entry[k] = v
	}
	logCtx := c.logger.WithFields(ctx, entry)
	c.logger.Info(logCtx, "razorpay."+operation)
}
