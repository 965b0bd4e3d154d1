package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarly/checkout-backend/pkg/config"
)

// AppliedCoupon is a coupon bound to one seller draft within a session.
type AppliedCoupon struct {
	Code          string `json:"code"`
	DiscountPaise int64  `json:"discountPaise"`
}

// SellerTotals is the per-shop slice of a totals computation.
type SellerTotals struct {
	ShopID        uuid.UUID `json:"shopId"`
	SubtotalPaise int64     `json:"subtotalPaise"`
	DiscountPaise int64     `json:"discountPaise"`
}

// Totals is the full money breakdown of a checkout. GrandTotalPaise is
// always SubtotalPaise - DiscountPaise + ShippingPaise + TaxPaise.
type Totals struct {
	SubtotalPaise   int64          `json:"subtotalPaise"`
	DiscountPaise   int64          `json:"discountPaise"`
	ShippingPaise   int64          `json:"shippingPaise"`
	TaxPaise        int64          `json:"taxPaise"`
	GrandTotalPaise int64          `json:"grandTotalPaise"`
	FreeShipping    bool           `json:"freeShipping"`
	PerSeller       []SellerTotals `json:"perSeller"`
}

// ComputeTotals derives the money breakdown for a set of seller drafts
// and the coupons applied per shop. It is pure: same inputs, same
// output, no matter how many times it runs.
//
// Discounts are clamped to [0, shop subtotal] so a coupon can never
// push a shop's contribution negative. Shipping is free when the
// post-discount merchandise amount reaches the configured threshold,
// otherwise the flat fee applies once per checkout regardless of shop
// count. Tax applies to the post-discount merchandise amount only,
// never to shipping, rounded half-up to the paisa.
func ComputeTotals(drafts []SellerDraft, coupons map[uuid.UUID]AppliedCoupon, pricing config.PricingConfig) Totals {
	totals := Totals{PerSeller: make([]SellerTotals, 0, len(drafts))}

	for _, draft := range drafts {
		discount := int64(0)
		if coupon, ok := coupons[draft.ShopID]; ok {
			discount = coupon.DiscountPaise
			if discount < 0 {
				discount = 0
			}
			if discount > draft.SubtotalPaise {
				discount = draft.SubtotalPaise
			}
		}
		totals.SubtotalPaise += draft.SubtotalPaise
		totals.DiscountPaise += discount
		totals.PerSeller = append(totals.PerSeller, SellerTotals{
			ShopID:        draft.ShopID,
			SubtotalPaise: draft.SubtotalPaise,
			DiscountPaise: discount,
		})
	}

	taxable := totals.SubtotalPaise - totals.DiscountPaise
	if taxable < 0 {
		taxable = 0
	}

	if taxable >= pricing.FreeShippingThresholdPaise {
		totals.FreeShipping = true
	} else if len(drafts) > 0 {
		totals.ShippingPaise = pricing.FlatShippingFeePaise
	}

	totals.TaxPaise = taxPaise(taxable, pricing.TaxRatePercent)
	totals.GrandTotalPaise = taxable + totals.ShippingPaise + totals.TaxPaise
	return totals
}

// taxPaise computes rate% of the amount, rounded half-up to the paisa.
func taxPaise(amountPaise int64, ratePercent float64) int64 {
	if amountPaise <= 0 || ratePercent <= 0 {
		return 0
	}
	amount := decimal.NewFromInt(amountPaise)
	rate := decimal.NewFromFloat(ratePercent).Div(decimal.NewFromInt(100))
	// Round rounds half away from zero, which is half-up for the
	// non-negative amounts handled here.
	return amount.Mul(rate).Round(0).IntPart()
}
