package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazaarly/checkout-backend/pkg/enums"
)

// Order is one seller's share of a placed checkout. All orders created by
// a single placement share a PlacementGroupID. The aggregate shipping fee
// and tax are carried on the first order of the group; per-seller rows
// carry their own subtotal and discount.
type Order struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	PlacementGroupID     uuid.UUID           `gorm:"column:placement_group_id;type:uuid;not null;index"`
	UserID               uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	ShopID               uuid.UUID           `gorm:"column:shop_id;type:uuid;not null"`
	ShopName             string              `gorm:"column:shop_name;not null"`
	ShippingAddressID    uuid.UUID           `gorm:"column:shipping_address_id;type:uuid;not null"`
	BillingAddressID     uuid.UUID           `gorm:"column:billing_address_id;type:uuid;not null"`
	PaymentMethod        enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Status               enums.OrderStatus   `gorm:"column:status;not null"`
	Currency             enums.Currency      `gorm:"column:currency;not null;default:'INR'"`
	CouponCode           *string             `gorm:"column:coupon_code"`
	SubtotalPaise        int64               `gorm:"column:subtotal_paise;not null"`
	DiscountPaise        int64               `gorm:"column:discount_paise;not null;default:0"`
	ShippingPaise        int64               `gorm:"column:shipping_paise;not null;default:0"`
	TaxPaise             int64               `gorm:"column:tax_paise;not null;default:0"`
	TotalPaise           int64               `gorm:"column:total_paise;not null"`
	Notes                *string             `gorm:"column:notes"`
	GatewayOrderID       *string             `gorm:"column:gateway_order_id;index"`
	GatewayPaymentID     *string             `gorm:"column:gateway_payment_id"`
	PaymentFailureReason *string             `gorm:"column:payment_failure_reason"`
	PaidAt               *time.Time          `gorm:"column:paid_at"`
	ExpiredAt            *time.Time          `gorm:"column:expired_at"`
	Items                []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
