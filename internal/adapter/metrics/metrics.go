package metrics

import (
	"net/http"

	"github.com/niksmo/paintstore/internal/core/port"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ port.Metrics = (*Metrics)(nil)

const namespace = "paintstore"

type Metrics struct {
	catalogFilters     prometheus.Counter
	catalogVisible     prometheus.Histogram
	cartMutations      *prometheus.CounterVec
	cartAnomalies      *prometheus.CounterVec
	checkoutLinks      prometheus.Counter
	checkoutPublished  prometheus.Counter
	checkoutPublishErr prometheus.Counter
}

// New registers the storefront collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		catalogFilters: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_filter_total",
			Help:      "The total number of catalog filter passes",
		}),
		catalogVisible: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_visible_items",
			Help:      "Items left visible after a filter pass",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		}),
		cartMutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutation_total",
			Help:      "The total number of cart mutations",
		}, []string{"op"}),
		cartAnomalies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_persistence_anomaly_total",
			Help:      "Cart storage faults absorbed by the cart store",
		}, []string{"reason"}),
		checkoutLinks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_link_total",
			Help:      "The total number of checkout links handed out",
		}),
		checkoutPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_event_published_total",
			Help:      "Checkout events accepted by the broker",
		}),
		checkoutPublishErr: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_event_failed_total",
			Help:      "Checkout events the broker did not accept",
		}),
	}
}

func (m *Metrics) CatalogFiltered(visible int) {
	m.catalogFilters.Inc()
	m.catalogVisible.Observe(float64(visible))
}

func (m *Metrics) CartMutation(op string) {
	m.cartMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) CartPersistenceAnomaly(reason string) {
	m.cartAnomalies.WithLabelValues(reason).Inc()
}

func (m *Metrics) CheckoutHandoff() {
	m.checkoutLinks.Inc()
}

func (m *Metrics) CheckoutEventPublished(err error) {
	if err != nil {
		m.checkoutPublishErr.Inc()
		return
	}
	m.checkoutPublished.Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
