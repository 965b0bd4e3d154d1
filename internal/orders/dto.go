package orders

import (
	"github.com/google/uuid"

	"github.com/bazaarly/checkout-backend/pkg/enums"
)

// LineInput is one cart line snapshotted into an order.
type LineInput struct {
	ProductID      uuid.UUID
	ProductName    string
	UnitPricePaise int64
	Quantity       int
	LineTotalPaise int64
}

// ShopDraft is one shop's share of a placement request.
type ShopDraft struct {
	ShopID        uuid.UUID
	ShopName      string
	Items         []LineInput
	SubtotalPaise int64
	DiscountPaise int64
	CouponCode    *string
}

// PlaceInput captures everything needed to persist a checkout as one
// order row per shop. ShippingPaise and TaxPaise are checkout-level
// amounts and land on the first order of the group; TotalPaise is the
// payable grand total across the group.
type PlaceInput struct {
	UserID            uuid.UUID
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
	PaymentMethod     enums.PaymentMethod
	Currency          enums.Currency
	Notes             *string
	Shops             []ShopDraft
	ShippingPaise     int64
	TaxPaise          int64
	TotalPaise        int64
}

// PlaceResult reports a successful placement. GatewayOrderID is set
// only for gateway placements.
type PlaceResult struct {
	PlacementGroupID uuid.UUID
	OrderIDs         []uuid.UUID
	AmountPaise      int64
	GatewayOrderID   *string
}

// MarkPaidInput identifies the orders a verified payment settles.
type MarkPaidInput struct {
	UserID           uuid.UUID
	OrderIDs         []uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
}
