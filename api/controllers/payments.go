package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bazaarly/checkout-backend/api/middleware"
	"github.com/bazaarly/checkout-backend/api/responses"
	"github.com/bazaarly/checkout-backend/api/validators"
	checkoutsvc "github.com/bazaarly/checkout-backend/internal/checkout"
	"github.com/bazaarly/checkout-backend/pkg/logger"
)

type placementResponse struct {
	OrderIDs []uuid.UUID                  `json:"order_ids"`
	Redirect string                       `json:"redirect,omitempty"`
	Gateway  *checkoutsvc.GatewayCheckout `json:"gateway,omitempty"`
}

func newPlacementResponse(outcome *checkoutsvc.PlacementOutcome) placementResponse {
	if outcome == nil {
		return placementResponse{}
	}
	return placementResponse{
		OrderIDs: outcome.OrderIDs,
		Redirect: outcome.Redirect,
		Gateway:  outcome.Gateway,
	}
}

// PlaceCheckoutOrder submits the review step. Cash on delivery settles
// immediately and returns the confirmation redirect; gateway placements
// return the widget payload and leave the session open until a payment
// callback lands.
func PlaceCheckoutOrder(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		identity := checkoutsvc.Identity{
			Name:  middleware.NameFromContext(r.Context()),
			Email: middleware.EmailFromContext(r.Context()),
		}
		outcome, err := svc.PlaceOrder(r.Context(), userID, identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPlacementResponse(outcome))
	}
}

type verifyPaymentRequest struct {
	OrderIDs         []uuid.UUID `json:"order_ids" validate:"required,min=1,dive,uuid4"`
	GatewayOrderID   string      `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string      `json:"razorpay_payment_id" validate:"required"`
	GatewaySignature string      `json:"razorpay_signature" validate:"required"`
}

// VerifyCheckoutPayment handles the gateway success callback. The
// signature is checked server side before any order is marked paid.
func VerifyCheckoutPayment(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := svc.VerifyPayment(r.Context(), userID, checkoutsvc.VerifyInput{
			OrderIDs:         payload.OrderIDs,
			GatewayOrderID:   payload.GatewayOrderID,
			GatewayPaymentID: payload.GatewayPaymentID,
			GatewaySignature: payload.GatewaySignature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPlacementResponse(outcome))
	}
}

type paymentFailureRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
	Description    string `json:"description" validate:"max=500"`
}

// ReportCheckoutPaymentFailure handles the gateway failure callback.
// The session returns to review with the gateway's description shown
// verbatim so the shopper can retry or switch to cash on delivery.
func ReportCheckoutPaymentFailure(svc *checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload paymentFailureRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		session, err := svc.HandleGatewayFailure(r.Context(), userID, payload.GatewayOrderID, payload.Description)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}
