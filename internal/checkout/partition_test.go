package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarly/checkout-backend/internal/cart"
)

func cartItem(shopID uuid.UUID, shopName string, unitPaise int64, qty int) cart.Item {
	return cart.Item{
		ProductID:      uuid.New(),
		ProductName:    shopName + " product",
		ShopID:         shopID,
		ShopName:       shopName,
		UnitPricePaise: unitPaise,
		Quantity:       qty,
		LineTotalPaise: unitPaise * int64(qty),
	}
}

func TestPartitionGroupsByFirstAppearance(t *testing.T) {
	shopA := uuid.New()
	shopB := uuid.New()
	items := []cart.Item{
		cartItem(shopA, "Shop A", 10000, 1),
		cartItem(shopB, "Shop B", 20000, 2),
		cartItem(shopA, "Shop A", 5000, 3),
	}

	drafts := PartitionBySeller(items)
	require.Len(t, drafts, 2)
	assert.Equal(t, shopA, drafts[0].ShopID)
	assert.Equal(t, shopB, drafts[1].ShopID)
	require.Len(t, drafts[0].Items, 2)
	require.Len(t, drafts[1].Items, 1)

	// items keep cart order within their group
	assert.Equal(t, items[0].ProductID, drafts[0].Items[0].ProductID)
	assert.Equal(t, items[2].ProductID, drafts[0].Items[1].ProductID)

	assert.Equal(t, int64(25000), drafts[0].SubtotalPaise)
	assert.Equal(t, int64(40000), drafts[1].SubtotalPaise)
}

func TestPartitionSingleSellerYieldsOneDraft(t *testing.T) {
	shopID := uuid.New()
	drafts := PartitionBySeller([]cart.Item{
		cartItem(shopID, "Solo", 10000, 1),
		cartItem(shopID, "Solo", 20000, 1),
	})
	require.Len(t, drafts, 1)
	assert.Equal(t, int64(30000), drafts[0].SubtotalPaise)
}

func TestPartitionEmptyInput(t *testing.T) {
	drafts := PartitionBySeller(nil)
	assert.Empty(t, drafts)
}
