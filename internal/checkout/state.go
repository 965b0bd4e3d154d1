package checkout

import (
	"strings"

	"github.com/google/uuid"

	"github.com/bazaarly/checkout-backend/pkg/enums"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
)

// Step is one stop of the linear checkout flow.
type Step string

const (
	StepAddress Step = "address"
	StepPayment Step = "payment"
	StepReview  Step = "review"
)

// State is the serializable checkout position of one shopper. Transition
// functions take a State by value and return the next State; callers
// persist the result atomically, so a failed transition leaves the
// stored state untouched.
type State struct {
	Step                  Step                        `json:"step"`
	ShippingAddressID     *uuid.UUID                  `json:"shippingAddressId,omitempty"`
	BillingAddressID      *uuid.UUID                  `json:"billingAddressId,omitempty"`
	BillingSameAsShipping bool                        `json:"billingSameAsShipping"`
	PaymentMethod         enums.PaymentMethod         `json:"paymentMethod"`
	Coupons               map[uuid.UUID]AppliedCoupon `json:"coupons,omitempty"`
	Notes                 string                      `json:"notes,omitempty"`
	Processing            bool                        `json:"processing"`
	GatewayStatus         GatewayStatus               `json:"gatewayStatus,omitempty"`
	ValidationErrors      map[string]string           `json:"validationErrors,omitempty"`
	OperationalError      string                      `json:"operationalError,omitempty"`
}

// NewState is the entry position: address step, billing follows
// shipping, gateway preselected.
func NewState() State {
	return State{
		Step:                  StepAddress,
		BillingSameAsShipping: true,
		PaymentMethod:         enums.PaymentMethodGateway,
		GatewayStatus:         GatewayIdle,
	}
}

// Advance moves forward one step when the current step's guard passes.
// A failed guard populates ValidationErrors and keeps the step; review
// is terminal, placement leaves it through PlaceOrder.
func (s State) Advance() (State, error) {
	if s.Processing {
		return s, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is processing")
	}
	s.ValidationErrors = nil
	s.OperationalError = ""

	switch s.Step {
	case StepAddress:
		errs := map[string]string{}
		if s.ShippingAddressID == nil {
			errs["shipping_address_id"] = "shipping address is required"
		}
		if !s.BillingSameAsShipping && s.BillingAddressID == nil {
			errs["billing_address_id"] = "billing address is required"
		}
		if len(errs) > 0 {
			s.ValidationErrors = errs
			return s, pkgerrors.New(pkgerrors.CodeValidation, "address step incomplete").WithDetails(errs)
		}
		s.Step = StepPayment
		return s, nil

	case StepPayment:
		if !s.PaymentMethod.IsValid() {
			errs := map[string]string{"payment_method": "payment method is required"}
			s.ValidationErrors = errs
			return s, pkgerrors.New(pkgerrors.CodeValidation, "payment step incomplete").WithDetails(errs)
		}
		s.Step = StepReview
		return s, nil

	case StepReview:
		return s, pkgerrors.New(pkgerrors.CodeStateConflict, "already at review")

	default:
		return s, pkgerrors.New(pkgerrors.CodeStateConflict, "unknown checkout step")
	}
}

// Back moves one step backward. All entered data survives, so a
// forward pass after going back needs no re-entry.
func (s State) Back() (State, error) {
	if s.Processing {
		return s, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is processing")
	}
	s.ValidationErrors = nil
	s.OperationalError = ""

	switch s.Step {
	case StepPayment:
		s.Step = StepAddress
		return s, nil
	case StepReview:
		s.Step = StepPayment
		return s, nil
	default:
		return s, pkgerrors.New(pkgerrors.CodeStateConflict, "already at the first step")
	}
}

// SelectShippingAddress records the shipping address choice.
func (s State) SelectShippingAddress(id uuid.UUID) (State, error) {
	if id == uuid.Nil {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "shipping address id required")
	}
	s.ShippingAddressID = &id
	s.ValidationErrors = withoutKey(s.ValidationErrors, "shipping_address_id")
	return s, nil
}

// SelectBillingAddress records a distinct billing address and clears
// the billing-same-as-shipping flag.
func (s State) SelectBillingAddress(id uuid.UUID) (State, error) {
	if id == uuid.Nil {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "billing address id required")
	}
	s.BillingAddressID = &id
	s.BillingSameAsShipping = false
	s.ValidationErrors = withoutKey(s.ValidationErrors, "billing_address_id")
	return s, nil
}

// SetBillingSameAsShipping toggles billing reuse. Turning it on drops
// any separately selected billing address.
func (s State) SetBillingSameAsShipping(same bool) State {
	s.BillingSameAsShipping = same
	if same {
		s.BillingAddressID = nil
		s.ValidationErrors = withoutKey(s.ValidationErrors, "billing_address_id")
	}
	return s
}

// SelectPaymentMethod records the payment method choice.
func (s State) SelectPaymentMethod(method enums.PaymentMethod) (State, error) {
	if s.Processing {
		return s, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is processing")
	}
	if !method.IsValid() {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be gateway or cod")
	}
	s.PaymentMethod = method
	s.ValidationErrors = withoutKey(s.ValidationErrors, "payment_method")
	return s, nil
}

// SetNotes stores free-form order notes.
func (s State) SetNotes(notes string) State {
	s.Notes = strings.TrimSpace(notes)
	return s
}

// ApplyCoupon binds a resolved coupon to a shop. One coupon per shop;
// a second application for the same shop replaces the first.
func (s State) ApplyCoupon(shopID uuid.UUID, coupon AppliedCoupon) (State, error) {
	if shopID == uuid.Nil {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if coupon.Code == "" {
		return s, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	coupons := make(map[uuid.UUID]AppliedCoupon, len(s.Coupons)+1)
	for k, v := range s.Coupons {
		coupons[k] = v
	}
	coupons[shopID] = coupon
	s.Coupons = coupons
	return s, nil
}

// RemoveCoupon unbinds a shop's coupon. Removing a coupon that is not
// applied is a no-op.
func (s State) RemoveCoupon(shopID uuid.UUID) State {
	if _, ok := s.Coupons[shopID]; !ok {
		return s
	}
	coupons := make(map[uuid.UUID]AppliedCoupon, len(s.Coupons))
	for k, v := range s.Coupons {
		if k != shopID {
			coupons[k] = v
		}
	}
	s.Coupons = coupons
	return s
}

// BeginProcessing enters the placement critical section. Only one
// placement may run per session.
func (s State) BeginProcessing() (State, error) {
	if s.Processing {
		return s, pkgerrors.New(pkgerrors.CodeStateConflict, "an order placement is already in progress")
	}
	if s.Step != StepReview {
		return s, pkgerrors.New(pkgerrors.CodeStateConflict, "placement requires the review step")
	}
	s.Processing = true
	s.OperationalError = ""
	s.GatewayStatus = GatewayIdle
	return s, nil
}

// EndProcessing leaves the placement critical section, recording an
// operational error message when the attempt failed.
func (s State) EndProcessing(operationalError string) State {
	s.Processing = false
	s.OperationalError = operationalError
	return s
}

// WithGatewayStatus records where the session's gateway payment
// attempt stands.
func (s State) WithGatewayStatus(status GatewayStatus) State {
	s.GatewayStatus = status
	return s
}

// withoutKey removes a key without mutating the input map.
func withoutKey(m map[string]string, key string) map[string]string {
	if _, ok := m[key]; !ok {
		return m
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
