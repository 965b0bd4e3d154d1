package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order placement and payment outcomes.
type CheckoutMetrics struct {
	placements      *prometheus.CounterVec
	verifications   *prometheus.CounterVec
	gatewayFailures prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_placements_total",
		Help: "Order placements by payment method and outcome.",
	}, []string{"method", "outcome"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_verifications_total",
		Help: "Gateway payment verifications by outcome.",
	}, []string{"outcome"})
	gatewayFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_gateway_failures_total",
		Help: "Payment gateway failures reported back to the checkout.",
	})
	reg.MustRegister(placements, verifications, gatewayFailures)
	return &CheckoutMetrics{
		placements:      placements,
		verifications:   verifications,
		gatewayFailures: gatewayFailures,
	}
}

// IncPlacement increments the placement counter for a payment method and outcome.
func (c *CheckoutMetrics) IncPlacement(method, outcome string) {
	if c == nil || c.placements == nil {
		return
	}
	c.placements.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
}

// IncVerification increments the verification counter for an outcome.
func (c *CheckoutMetrics) IncVerification(outcome string) {
	if c == nil || c.verifications == nil {
		return
	}
	c.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncGatewayFailure increments the gateway failure counter.
func (c *CheckoutMetrics) IncGatewayFailure() {
	if c == nil || c.gatewayFailures == nil {
		return
	}
	c.gatewayFailures.Inc()
}
