package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records cart, checkout and bridge activity.
type StorefrontMetrics struct {
	cartMutations  *prometheus.CounterVec
	ordersPlaced   prometheus.Counter
	ordersFailed   *prometheus.CounterVec
	placeDuration  prometheus.Histogram
	bridgeOutcomes *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created from carts.",
	})
	ordersFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Order placements that failed, by reason.",
	}, []string{"reason"})
	placeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "place_order_duration_seconds",
		Help:    "Duration of order placement in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	bridgeOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_order_promotions_total",
		Help: "Draft order promotions by result.",
	}, []string{"result"})
	reg.MustRegister(cartMutations, ordersPlaced, ordersFailed, placeDuration, bridgeOutcomes)
	return &StorefrontMetrics{
		cartMutations:  cartMutations,
		ordersPlaced:   ordersPlaced,
		ordersFailed:   ordersFailed,
		placeDuration:  placeDuration,
		bridgeOutcomes: bridgeOutcomes,
	}
}

// IncCartMutation counts one cart mutation of the given kind.
func (m *StorefrontMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncOrderPlaced counts a committed order.
func (m *StorefrontMetrics) IncOrderPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// IncOrderFailed counts a failed placement.
func (m *StorefrontMetrics) IncOrderFailed(reason string) {
	if m == nil || m.ordersFailed == nil {
		return
	}
	m.ordersFailed.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObservePlaceOrder records how long a placement took.
func (m *StorefrontMetrics) ObservePlaceOrder(duration time.Duration) {
	if m == nil || m.placeDuration == nil {
		return
	}
	m.placeDuration.Observe(duration.Seconds())
}

// IncPromotion counts a bridge outcome: created, existing or failed.
func (m *StorefrontMetrics) IncPromotion(result string) {
	if m == nil || m.bridgeOutcomes == nil {
		return
	}
	m.bridgeOutcomes.WithLabelValues(normalizeLabel(result)).Inc()
}
