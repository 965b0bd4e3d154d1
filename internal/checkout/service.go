package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bazaarly/checkout-backend/internal/address"
	"github.com/bazaarly/checkout-backend/internal/cart"
	"github.com/bazaarly/checkout-backend/internal/coupons"
	"github.com/bazaarly/checkout-backend/internal/orders"
	"github.com/bazaarly/checkout-backend/pkg/config"
	"github.com/bazaarly/checkout-backend/pkg/enums"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
	"github.com/bazaarly/checkout-backend/pkg/logger"
	"github.com/bazaarly/checkout-backend/pkg/metrics"
)

type placementClient interface {
	Place(ctx context.Context, input orders.PlaceInput) (*orders.PlaceResult, error)
	MarkPaid(ctx context.Context, input orders.MarkPaidInput) error
	MarkPaymentFailed(ctx context.Context, userID uuid.UUID, gatewayOrderID, reason string) error
}

// Identity carries the shopper profile fields the payment widget wants
// prefilled.
type Identity struct {
	Name  string
	Email string
}

// AddressSelection is the address step's input.
type AddressSelection struct {
	ShippingAddressID     *uuid.UUID
	BillingAddressID      *uuid.UUID
	BillingSameAsShipping *bool
}

// VerifyInput is the gateway success callback's payload.
type VerifyInput struct {
	OrderIDs         []uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
}

// PlacementOutcome is the result of PlaceOrder. Redirect is set on the
// terminal COD path; Gateway is set when a payment widget must open.
type PlacementOutcome struct {
	OrderIDs []uuid.UUID
	Redirect string
	Gateway  *GatewayCheckout
}

// Service orchestrates checkout sessions end to end: entry, step
// navigation, coupons, placement, and payment callbacks.
type Service struct {
	cart      cart.Reader
	addresses address.Provider
	coupons   coupons.Resolver
	store     SessionStore
	orders    placementClient
	gateway   GatewayClient
	pricing   config.PricingConfig
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewService builds the checkout service. gateway may be nil when the
// payment gateway is not configured; gateway placement then fails with
// a gateway-unavailable error and COD stays available.
func NewService(
	cartReader cart.Reader,
	addressProvider address.Provider,
	couponResolver coupons.Resolver,
	store SessionStore,
	placer placementClient,
	gateway GatewayClient,
	pricing config.PricingConfig,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (*Service, error) {
	if cartReader == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if addressProvider == nil {
		return nil, fmt.Errorf("address provider required")
	}
	if couponResolver == nil {
		return nil, fmt.Errorf("coupon resolver required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if placer == nil {
		return nil, fmt.Errorf("placement client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		cart:      cartReader,
		addresses: addressProvider,
		coupons:   couponResolver,
		store:     store,
		orders:    placer,
		gateway:   gateway,
		pricing:   pricing,
		metrics:   checkoutMetrics,
		logg:      logg,
	}, nil
}

// Enter starts a checkout from the shopper's current cart. The cart is
// read exactly once; the resulting partition is fixed for the life of
// the session. Re-entering replaces any previous session with a fresh
// read.
func (s *Service) Enter(ctx context.Context, userID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	snapshot, err := s.cart.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if snapshot.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is empty").
			WithDetails(map[string]string{"redirect": CartRoute})
	}

	currency := enums.Currency(s.pricing.Currency)
	if !currency.IsValid() {
		currency = enums.CurrencyINR
	}
	drafts := PartitionBySeller(snapshot.Items)
	state := NewState()
	session := &Session{
		UserID:    userID,
		Drafts:    drafts,
		Currency:  currency,
		State:     state,
		Totals:    ComputeTotals(drafts, state.Coupons, s.pricing),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	logCtx := s.logg.WithUserID(ctx, userID.String())
	s.logg.Info(s.logg.WithField(logCtx, "seller_count", len(drafts)), "checkout session started")
	return session, nil
}

// Current returns the stored session.
func (s *Service) Current(ctx context.Context, userID uuid.UUID) (*Session, error) {
	return s.store.Load(ctx, userID)
}

// Advance moves the session forward one step. On a guard failure the
// session is saved with its validation errors so a later read still
// sees them, and the error is returned.
func (s *Service) Advance(ctx context.Context, userID uuid.UUID) (*Session, error) {
	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, terr := session.State.Advance()
	session.State = next
	if serr := s.saveWithTotals(ctx, session); serr != nil {
		return nil, serr
	}
	if terr != nil {
		return session, terr
	}
	return session, nil
}

// Back moves the session one step backward, keeping all entered data.
func (s *Service) Back(ctx context.Context, userID uuid.UUID) (*Session, error) {
	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, terr := session.State.Back()
	if terr != nil {
		return nil, terr
	}
	session.State = next
	if err := s.saveWithTotals(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetAddresses applies the address step's selections. Selected ids must
// exist in the shopper's address book.
func (s *Service) SetAddresses(ctx context.Context, userID uuid.UUID, sel AddressSelection) (*Session, error) {
	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	state := session.State
	if sel.ShippingAddressID != nil {
		if _, err := s.addresses.Get(ctx, userID, *sel.ShippingAddressID); err != nil {
			return nil, err
		}
		state, err = state.SelectShippingAddress(*sel.ShippingAddressID)
		if err != nil {
			return nil, err
		}
	}
	if sel.BillingSameAsShipping != nil {
		state = state.SetBillingSameAsShipping(*sel.BillingSameAsShipping)
	}
	if sel.BillingAddressID != nil {
		if _, err := s.addresses.Get(ctx, userID, *sel.BillingAddressID); err != nil {
			return nil, err
		}
		state, err = state.SelectBillingAddress(*sel.BillingAddressID)
		if err != nil {
			return nil, err
		}
	}

	session.State = state
	if err := s.saveWithTotals(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetPaymentMethod records the shopper's method choice.
func (s *Service) SetPaymentMethod(ctx context.Context, userID uuid.UUID, method enums.PaymentMethod) (*Session, error) {
	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, terr := session.State.SelectPaymentMethod(method)
	if terr != nil {
		return nil, terr
	}
	session.State = next
	if err := s.saveWithTotals(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetNotes stores free-form order notes.
func (s *Service) SetNotes(ctx context.Context, userID uuid.UUID, notes string) (*Session, error) {
	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	session.State = session.State.SetNotes(notes)
	if err := s.saveWithTotals(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ApplyCoupon resolves a code for one of the session's shops and
// recomputes totals in the same write.
func (s *Service) ApplyCoupon(ctx context.Context, userID, shopID uuid.UUID, code string) (*Session, error) {
	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sessionHasShop(session, shopID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop is not part of this checkout")
	}

	coupon, err := s.coupons.Resolve(ctx, shopID, code)
	if err != nil {
		return nil, err
	}

	next, terr := session.State.ApplyCoupon(shopID, AppliedCoupon{
		Code:          coupon.Code,
		DiscountPaise: coupon.DiscountPaise,
	})
	if terr != nil {
		return nil, terr
	}
	session.State = next
	if err := s.saveWithTotals(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RemoveCoupon unbinds a shop's coupon and restores totals in the same
// write.
func (s *Service) RemoveCoupon(ctx context.Context, userID, shopID uuid.UUID) (*Session, error) {
	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	session.State = session.State.RemoveCoupon(shopID)
	if err := s.saveWithTotals(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// PlaceOrder runs the placement critical section: exactly one attempt
// at a time per session. COD is terminal; gateway placements keep the
// session alive, processing, until a payment callback resolves them.
func (s *Service) PlaceOrder(ctx context.Context, userID uuid.UUID, identity Identity) (*PlacementOutcome, error) {
	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if session.State.PaymentMethod == enums.PaymentMethodGateway && (s.gateway == nil || !s.gateway.Available()) {
		msg := "payment gateway is unavailable, use cash on delivery"
		session.State = session.State.EndProcessing(msg).WithGatewayStatus(GatewayUnavailable)
		if serr := s.saveWithTotals(ctx, session); serr != nil {
			return nil, serr
		}
		return nil, pkgerrors.New(pkgerrors.CodeGatewayUnavailable, msg)
	}

	next, terr := session.State.BeginProcessing()
	if terr != nil {
		return nil, terr
	}
	session.State = next
	// holds the critical section against a second submit
	if err := s.saveWithTotals(ctx, session); err != nil {
		return nil, err
	}

	result, err := s.orders.Place(ctx, s.buildPlaceInput(session))
	if err != nil {
		s.metrics.IncPlacement(session.State.PaymentMethod.String(), "failure")
		session.State = session.State.EndProcessing(placementErrorMessage(err))
		if serr := s.saveWithTotals(ctx, session); serr != nil {
			s.logg.Error(ctx, "release processing flag after failed placement", serr)
		}
		return nil, err
	}

	if session.State.PaymentMethod == enums.PaymentMethodCOD {
		s.metrics.IncPlacement(enums.PaymentMethodCOD.String(), "success")
		if err := s.store.Delete(ctx, userID); err != nil {
			s.logg.Error(ctx, "clear checkout session after cod placement", err)
		}
		return &PlacementOutcome{
			OrderIDs: result.OrderIDs,
			Redirect: ConfirmationRoute(result.OrderIDs[0], len(result.OrderIDs) > 1),
		}, nil
	}

	s.metrics.IncPlacement(enums.PaymentMethodGateway.String(), "success")
	// the session stays processing with the widget open until a
	// payment callback resolves the attempt
	session.State = session.State.WithGatewayStatus(GatewayOpened)
	if err := s.saveWithTotals(ctx, session); err != nil {
		s.logg.Error(ctx, "record gateway attempt opened", err)
	}
	return &PlacementOutcome{
		OrderIDs: result.OrderIDs,
		Gateway: &GatewayCheckout{
			KeyID:          s.gateway.KeyID(),
			GatewayOrderID: *result.GatewayOrderID,
			AmountPaise:    result.AmountPaise,
			Currency:       session.Currency,
			Prefill:        NewGatewayPrefill(identity.Name, identity.Email),
		},
	}, nil
}

// VerifyPayment checks the gateway signature and settles the orders.
// The signature check decides success; nothing the widget reported is
// trusted on its own.
func (s *Service) VerifyPayment(ctx context.Context, userID uuid.UUID, input VerifyInput) (*PlacementOutcome, error) {
	if len(input.OrderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ids required")
	}
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.GatewaySignature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id, payment id and signature required")
	}
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "payment gateway is not configured")
	}

	if !s.gateway.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.GatewaySignature) {
		s.metrics.IncVerification("failure")
		s.releaseProcessing(ctx, userID, "payment verification failed, the payment was not captured")
		return nil, pkgerrors.New(pkgerrors.CodePaymentVerification, "payment signature verification failed")
	}

	err := s.orders.MarkPaid(ctx, orders.MarkPaidInput{
		UserID:           userID,
		OrderIDs:         input.OrderIDs,
		GatewayOrderID:   input.GatewayOrderID,
		GatewayPaymentID: input.GatewayPaymentID,
	})
	if err != nil {
		s.metrics.IncVerification("failure")
		s.releaseProcessing(ctx, userID, placementErrorMessage(err))
		return nil, err
	}

	s.metrics.IncVerification("success")
	if err := s.store.Delete(ctx, userID); err != nil {
		s.logg.Error(ctx, "clear checkout session after payment", err)
		s.settleSession(ctx, userID)
	}
	return &PlacementOutcome{
		OrderIDs: input.OrderIDs,
		Redirect: ConfirmationRoute(input.OrderIDs[0], len(input.OrderIDs) > 1),
	}, nil
}

// HandleGatewayFailure is the widget's failed-payment callback,
// including dismissal. The description is surfaced to the shopper
// verbatim; the session leaves processing so a retry or a switch to
// COD can follow.
func (s *Service) HandleGatewayFailure(ctx context.Context, userID uuid.UUID, gatewayOrderID, description string) (*Session, error) {
	if gatewayOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id required")
	}
	if description == "" {
		description = "payment failed"
	}

	s.metrics.IncGatewayFailure()
	if err := s.orders.MarkPaymentFailed(ctx, userID, gatewayOrderID, description); err != nil {
		s.logg.Error(ctx, "record gateway payment failure", err)
	}

	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	session.State = session.State.EndProcessing(description).WithGatewayStatus(GatewayFailed)
	if err := s.saveWithTotals(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// saveWithTotals recomputes totals from the fixed drafts and current
// coupons, then writes state and totals in one store operation.
func (s *Service) saveWithTotals(ctx context.Context, session *Session) error {
	session.Totals = ComputeTotals(session.Drafts, session.State.Coupons, s.pricing)
	return s.store.Save(ctx, session)
}

func (s *Service) releaseProcessing(ctx context.Context, userID uuid.UUID, message string) {
	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return
	}
	session.State = session.State.EndProcessing(message).WithGatewayStatus(GatewayFailed)
	if err := s.saveWithTotals(ctx, session); err != nil {
		s.logg.Error(ctx, "release processing flag", err)
	}
}

// settleSession marks a leftover session's gateway attempt settled
// when the session could not be removed after a captured payment, so
// the leftover never reads as stuck processing until its TTL.
func (s *Service) settleSession(ctx context.Context, userID uuid.UUID) {
	session, err := s.store.Load(ctx, userID)
	if err != nil {
		return
	}
	session.State = session.State.EndProcessing("").WithGatewayStatus(GatewaySucceeded)
	if err := s.saveWithTotals(ctx, session); err != nil {
		s.logg.Error(ctx, "settle checkout session", err)
	}
}

func (s *Service) buildPlaceInput(session *Session) orders.PlaceInput {
	input := orders.PlaceInput{
		UserID:        session.UserID,
		PaymentMethod: session.State.PaymentMethod,
		Currency:      session.Currency,
		ShippingPaise: session.Totals.ShippingPaise,
		TaxPaise:      session.Totals.TaxPaise,
		TotalPaise:    session.Totals.GrandTotalPaise,
	}
	if session.State.ShippingAddressID != nil {
		input.ShippingAddressID = *session.State.ShippingAddressID
	}
	input.BillingAddressID = input.ShippingAddressID
	if !session.State.BillingSameAsShipping && session.State.BillingAddressID != nil {
		input.BillingAddressID = *session.State.BillingAddressID
	}
	if session.State.Notes != "" {
		notes := session.State.Notes
		input.Notes = &notes
	}

	discounts := make(map[uuid.UUID]int64, len(session.Totals.PerSeller))
	for _, st := range session.Totals.PerSeller {
		discounts[st.ShopID] = st.DiscountPaise
	}

	for _, draft := range session.Drafts {
		shop := orders.ShopDraft{
			ShopID:        draft.ShopID,
			ShopName:      draft.ShopName,
			SubtotalPaise: draft.SubtotalPaise,
			DiscountPaise: discounts[draft.ShopID],
		}
		if coupon, ok := session.State.Coupons[draft.ShopID]; ok {
			code := coupon.Code
			shop.CouponCode = &code
		}
		for _, item := range draft.Items {
			shop.Items = append(shop.Items, orders.LineInput{
				ProductID:      item.ProductID,
				ProductName:    item.ProductName,
				UnitPricePaise: item.UnitPricePaise,
				Quantity:       item.Quantity,
				LineTotalPaise: item.LineTotalPaise,
			})
		}
		input.Shops = append(input.Shops, shop)
	}
	return input
}

func sessionHasShop(session *Session, shopID uuid.UUID) bool {
	for _, draft := range session.Drafts {
		if draft.ShopID == shopID {
			return true
		}
	}
	return false
}

func placementErrorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return "order placement failed, please try again"
}
