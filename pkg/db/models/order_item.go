package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots a cart line into its seller order at placement.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string    `gorm:"column:product_name;not null"`
	UnitPricePaise int64     `gorm:"column:unit_price_paise;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	LineTotalPaise int64     `gorm:"column:line_total_paise;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
