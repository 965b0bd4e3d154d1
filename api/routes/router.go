package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bazaarly/checkout-backend/api/controllers"
	"github.com/bazaarly/checkout-backend/api/middleware"
	"github.com/bazaarly/checkout-backend/internal/address"
	checkoutsvc "github.com/bazaarly/checkout-backend/internal/checkout"
	"github.com/bazaarly/checkout-backend/internal/orders"
	"github.com/bazaarly/checkout-backend/pkg/config"
	"github.com/bazaarly/checkout-backend/pkg/db"
	"github.com/bazaarly/checkout-backend/pkg/logger"
	"github.com/bazaarly/checkout-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	checkoutService *checkoutsvc.Service,
	addressProvider address.Provider,
	ordersRepo orders.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, checkoutsvc.LoginRoute, logg))

		r.Get("/addresses", controllers.ListAddresses(addressProvider, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Route("/session", func(r chi.Router) {
				r.Post("/", controllers.EnterCheckout(checkoutService, logg))
				r.Get("/", controllers.CurrentCheckout(checkoutService, logg))
				r.Post("/advance", controllers.AdvanceCheckout(checkoutService, logg))
				r.Post("/back", controllers.BackCheckout(checkoutService, logg))
				r.Put("/address", controllers.SetCheckoutAddresses(checkoutService, logg))
				r.Put("/payment-method", controllers.SetCheckoutPaymentMethod(checkoutService, logg))
				r.Put("/notes", controllers.SetCheckoutNotes(checkoutService, logg))
				r.Post("/coupons", controllers.ApplyCheckoutCoupon(checkoutService, logg))
				r.Delete("/coupons/{shopID}", controllers.RemoveCheckoutCoupon(checkoutService, logg))
			})
			r.Post("/orders", controllers.PlaceCheckoutOrder(checkoutService, logg))
			r.Route("/payments", func(r chi.Router) {
				r.Post("/verify", controllers.VerifyCheckoutPayment(checkoutService, logg))
				r.Post("/failed", controllers.ReportCheckoutPaymentFailure(checkoutService, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{orderID}", controllers.GetUserOrder(ordersRepo, logg))
		})
	})

	return r
}
