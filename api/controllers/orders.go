package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bazaarly/checkout-backend/api/responses"
	"github.com/bazaarly/checkout-backend/internal/orders"
	"github.com/bazaarly/checkout-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
	"github.com/bazaarly/checkout-backend/pkg/logger"
)

type orderItemResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	UnitPricePaise int64     `json:"unit_price_paise"`
	Quantity       int       `json:"quantity"`
	LineTotalPaise int64     `json:"line_total_paise"`
}

type orderResponse struct {
	OrderID        uuid.UUID           `json:"order_id"`
	ShopID         uuid.UUID           `json:"shop_id"`
	ShopName       string              `json:"shop_name"`
	Status         string              `json:"status"`
	PaymentMethod  string              `json:"payment_method"`
	Currency       string              `json:"currency"`
	CouponCode     *string             `json:"coupon_code,omitempty"`
	SubtotalPaise  int64               `json:"subtotal_paise"`
	DiscountPaise  int64               `json:"discount_paise"`
	ShippingPaise  int64               `json:"shipping_paise"`
	TaxPaise       int64               `json:"tax_paise"`
	TotalPaise     int64               `json:"total_paise"`
	Notes          *string             `json:"notes,omitempty"`
	GatewayOrderID *string             `json:"gateway_order_id,omitempty"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	Items          []orderItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
}

type orderConfirmationResponse struct {
	PlacementGroupID uuid.UUID       `json:"placement_group_id"`
	Multi            bool            `json:"multi"`
	Orders           []orderResponse `json:"orders"`
}

// GetUserOrder serves the confirmation page: the requested order plus
// every sibling order placed in the same checkout, oldest first.
func GetUserOrder(repo orders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		ctx := logg.WithOrderID(r.Context(), orderID.String())

		owned, err := repo.FindByIDsForUser(ctx, userID, []uuid.UUID{orderID})
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order"))
			return
		}
		if len(owned) == 0 {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		group, err := repo.FindByPlacementGroup(ctx, owned[0].PlacementGroupID)
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load placement group"))
			return
		}

		responses.WriteSuccess(w, newOrderConfirmationResponse(owned[0].PlacementGroupID, group))
	}
}

func newOrderConfirmationResponse(groupID uuid.UUID, rows []models.Order) orderConfirmationResponse {
	out := orderConfirmationResponse{
		PlacementGroupID: groupID,
		Multi:            len(rows) > 1,
		Orders:           make([]orderResponse, 0, len(rows)),
	}
	for _, row := range rows {
		items := make([]orderItemResponse, 0, len(row.Items))
		for _, item := range row.Items {
			items = append(items, orderItemResponse{
				ProductID:      item.ProductID,
				ProductName:    item.ProductName,
				UnitPricePaise: item.UnitPricePaise,
				Quantity:       item.Quantity,
				LineTotalPaise: item.LineTotalPaise,
			})
		}
		out.Orders = append(out.Orders, orderResponse{
			OrderID:        row.ID,
			ShopID:         row.ShopID,
			ShopName:       row.ShopName,
			Status:         string(row.Status),
			PaymentMethod:  string(row.PaymentMethod),
			Currency:       string(row.Currency),
			CouponCode:     row.CouponCode,
			SubtotalPaise:  row.SubtotalPaise,
			DiscountPaise:  row.DiscountPaise,
			ShippingPaise:  row.ShippingPaise,
			TaxPaise:       row.TaxPaise,
			TotalPaise:     row.TotalPaise,
			Notes:          row.Notes,
			GatewayOrderID: row.GatewayOrderID,
			PaidAt:         row.PaidAt,
			Items:          items,
			CreatedAt:      row.CreatedAt,
		})
	}
	return out
}
