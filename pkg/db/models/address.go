package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is an address-book entry. Checkout only checks that a selected
// id exists and belongs to the shopper; content validation lives with the
// address service.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Label      string    `gorm:"column:label"`
	Line1      string    `gorm:"column:line1;not null"`
	Line2      string    `gorm:"column:line2"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	Country    string    `gorm:"column:country;not null;default:'IN'"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
