package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem persists one product line of a shopper's cart. Checkout reads
// these rows once at entry and never mutates them; the cart service owns
// all writes.
type CartItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string    `gorm:"column:product_name;not null"`
	ShopID         uuid.UUID `gorm:"column:shop_id;type:uuid;not null"`
	ShopName       string    `gorm:"column:shop_name;not null"`
	UnitPricePaise int64     `gorm:"column:unit_price_paise;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	LineTotalPaise int64     `gorm:"column:line_total_paise;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
