package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a per-shop discount code. DiscountPaise is a flat amount; the
// totals calculator clamps it to the shop's subtotal at application time.
type Coupon struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ShopID        uuid.UUID  `gorm:"column:shop_id;type:uuid;not null;index;uniqueIndex:idx_coupons_shop_code"`
	Code          string     `gorm:"column:code;not null;uniqueIndex:idx_coupons_shop_code"`
	DiscountPaise int64      `gorm:"column:discount_paise;not null"`
	Active        bool       `gorm:"column:active;not null;default:true"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
