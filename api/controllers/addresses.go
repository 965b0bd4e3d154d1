package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bazaarly/checkout-backend/api/responses"
	"github.com/bazaarly/checkout-backend/internal/address"
	"github.com/bazaarly/checkout-backend/pkg/logger"
)

type addressResponse struct {
	ID         uuid.UUID `json:"id"`
	Label      string    `json:"label,omitempty"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
}

// ListAddresses returns the shopper's saved addresses for the address step.
func ListAddresses(provider address.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := provider.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]addressResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, addressResponse{
				ID:         row.ID,
				Label:      row.Label,
				Line1:      row.Line1,
				Line2:      row.Line2,
				City:       row.City,
				State:      row.State,
				PostalCode: row.PostalCode,
				Country:    row.Country,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
