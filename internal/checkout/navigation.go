package checkout

import (
	"fmt"

	"github.com/google/uuid"
)

// CartRoute is where an empty-cart checkout entry bounces back to.
const CartRoute = "/cart"

// LoginRoute is where unauthenticated checkout requests are sent; the
// redirect query returns the shopper to checkout after signing in.
const LoginRoute = "/login?redirect=/checkout"

// ConfirmationRoute points at the first order of a placement group.
// multi tells the confirmation page whether sibling orders exist.
func ConfirmationRoute(firstOrderID uuid.UUID, multi bool) string {
	return fmt.Sprintf("/user/orders/%s?success=true&multi=%t", firstOrderID, multi)
}
