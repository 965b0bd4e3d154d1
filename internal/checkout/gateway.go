package checkout

import (
	"context"

	"github.com/bazaarly/checkout-backend/pkg/enums"
)

// GatewayStatus tracks a gateway payment attempt within a placement.
type GatewayStatus string

const (
	GatewayIdle        GatewayStatus = "idle"
	GatewayOpened      GatewayStatus = "opened"
	GatewaySucceeded   GatewayStatus = "succeeded"
	GatewayFailed      GatewayStatus = "failed"
	GatewayUnavailable GatewayStatus = "unavailable"
)

// GatewayPrefill seeds the payment widget's contact fields. Name falls
// back to the email when the profile has no display name.
type GatewayPrefill struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewGatewayPrefill applies the name fallback.
func NewGatewayPrefill(name, email string) GatewayPrefill {
	if name == "" {
		name = email
	}
	return GatewayPrefill{Name: name, Email: email}
}

// GatewayCheckout is everything a client needs to open the payment
// widget for a placed order group.
type GatewayCheckout struct {
	KeyID          string         `json:"keyId"`
	GatewayOrderID string         `json:"razorpayOrderId"`
	AmountPaise    int64          `json:"amount"`
	Currency       enums.Currency `json:"currency"`
	Prefill        GatewayPrefill `json:"prefill"`
}

// GatewayClient is the server half of the payment gateway integration.
// Satisfied by *razorpay.Client.
type GatewayClient interface {
	Available() bool
	KeyID() string
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}
