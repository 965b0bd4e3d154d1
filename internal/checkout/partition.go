package checkout

import (
	"github.com/google/uuid"

	"github.com/bazaarly/checkout-backend/internal/cart"
)

// SellerDraft is one shop's share of a checkout: the cart lines that
// belong to a single seller, in cart order.
type SellerDraft struct {
	ShopID        uuid.UUID   `json:"shopId"`
	ShopName      string      `json:"shopName"`
	Items         []cart.Item `json:"items"`
	SubtotalPaise int64       `json:"subtotalPaise"`
}

// PartitionBySeller groups cart items into one draft per shop. Shops
// appear in order of first appearance in the cart; items keep their
// cart order within each draft. A cart with a single shop yields a
// single draft, so the multi-seller and single-seller paths share one
// shape.
func PartitionBySeller(items []cart.Item) []SellerDraft {
	drafts := make([]SellerDraft, 0)
	index := make(map[uuid.UUID]int)
	for _, item := range items {
		pos, ok := index[item.ShopID]
		if !ok {
			pos = len(drafts)
			index[item.ShopID] = pos
			drafts = append(drafts, SellerDraft{
				ShopID:   item.ShopID,
				ShopName: item.ShopName,
			})
		}
		drafts[pos].Items = append(drafts[pos].Items, item)
		drafts[pos].SubtotalPaise += item.LineTotalPaise
	}
	return drafts
}
