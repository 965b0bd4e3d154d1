package cart

import (
	"github.com/google/uuid"
)

// Item is one priced product line of a shopper's cart.
type Item struct {
	ProductID      uuid.UUID `json:"productId"`
	ProductName    string    `json:"productName"`
	ShopID         uuid.UUID `json:"shopId"`
	ShopName       string    `json:"shopName"`
	UnitPricePaise int64     `json:"unitPricePaise"`
	Quantity       int       `json:"quantity"`
	LineTotalPaise int64     `json:"lineTotalPaise"`
}

// Snapshot is a point-in-time read of a shopper's cart. Checkout works
// against the snapshot taken at entry; later cart edits do not leak into
// an in-flight checkout.
type Snapshot struct {
	UserID uuid.UUID `json:"userId"`
	Items  []Item    `json:"items"`
}

// SubtotalPaise sums the line totals of every item in the snapshot.
func (s Snapshot) SubtotalPaise() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.LineTotalPaise
	}
	return total
}

// Empty reports whether the snapshot carries no items.
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}
