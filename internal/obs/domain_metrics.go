package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout attempts by result.
	CheckoutTotal *prometheus.CounterVec
	// OrdersSettledVendors records how many vendors a settled order spans.
	OrdersSettledVendors prometheus.Histogram
	// LedgerDecodeFailures counts malformed ledger documents encountered at read time.
	LedgerDecodeFailures prometheus.Counter
	// GeoSearchTotal counts vendor discovery searches by mode.
	GeoSearchTotal *prometheus.CounterVec
	// VendorTotalsWarmTotal counts vendor-totals cache warm outcomes.
	VendorTotalsWarmTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout attempts by result.",
		}, []string{"result"})
		OrdersSettledVendors = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_settled_vendors",
			Help:      "Distribution of vendor count per settled order.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13},
		})
		LedgerDecodeFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_decode_failures_total",
			Help:      "Number of order ledgers that failed to decode.",
		})
		GeoSearchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_search_total",
			Help:      "Count of vendor discovery searches by mode.",
		}, []string{"mode", "result"})
		VendorTotalsWarmTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_totals_warm_total",
			Help:      "Count of vendor-totals cache warm outcomes.",
		}, []string{"result"})

		mustRegisterCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		mustRegisterCollector(reg, OrdersSettledVendors, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				OrdersSettledVendors = v
			}
		})
		mustRegisterCollector(reg, LedgerDecodeFailures, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LedgerDecodeFailures = v
			}
		})
		mustRegisterCollector(reg, GeoSearchTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				GeoSearchTotal = v
			}
		})
		mustRegisterCollector(reg, VendorTotalsWarmTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				VendorTotalsWarmTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
