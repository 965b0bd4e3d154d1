package payloads

import (
	"github.com/google/uuid"
)

// OrderPlacedEvent signals a new checkout split across sellers.
type OrderPlacedEvent struct {
	PlacementGroupID uuid.UUID   `json:"placement_group_id"`
	OrderIDs         []uuid.UUID `json:"order_ids"`
	PaymentMethod    string      `json:"payment_method"`
	AmountPaise      int64       `json:"amount_paise"`
}

// OrderPaidEvent is emitted once a gateway payment has been verified.
type OrderPaidEvent struct {
	PlacementGroupID uuid.UUID   `json:"placement_group_id"`
	OrderIDs         []uuid.UUID `json:"order_ids"`
	GatewayOrderID   string      `json:"gateway_order_id"`
	GatewayPaymentID string      `json:"gateway_payment_id"`
}

// OrderPaymentFailedEvent records a gateway failure for a placement group.
type OrderPaymentFailedEvent struct {
	PlacementGroupID uuid.UUID   `json:"placement_group_id"`
	OrderIDs         []uuid.UUID `json:"order_ids"`
	Reason           string      `json:"reason"`
}

// OrderExpiredEvent is emitted when a pending-payment order times out.
type OrderExpiredEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	PlacementGroupID uuid.UUID `json:"placement_group_id"`
}
