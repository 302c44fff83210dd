package obs

import "github.com/prometheus/client_golang/prometheus"

// DomainMetrics counts pricing outcomes. A nil *DomainMetrics is a no-op.
type DomainMetrics struct {
	Quotes   *prometheus.CounterVec
	Applied  *prometheus.CounterVec
	Failures *prometheus.CounterVec
}

// NewDomainMetrics registers the pricing collectors on reg.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &DomainMetrics{
		Quotes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Cart quotes by pricing mode and result.",
		}, []string{"mode", "result"})),
		Applied: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discounts_applied_total",
			Help:      "Discounts that reduced a cart price, by kind.",
		}, []string{"kind"})),
		Failures: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eligibility_failures_total",
			Help:      "Evaluations rejected by an eligibility check, by kind.",
		}, []string{"kind"})),
	}
}

// Quote records one quote outcome such as "ok", "invalid_input" or "rules_unavailable".
func (m *DomainMetrics) Quote(mode, result string) {
	if m == nil {
		return
	}
	m.Quotes.WithLabelValues(mode, result).Inc()
}

// DiscountApplied implements pricing.Recorder.
func (m *DomainMetrics) DiscountApplied(kind string) {
	if m == nil {
		return
	}
	m.Applied.WithLabelValues(kind).Inc()
}

// EligibilityFailed implements pricing.Recorder.
func (m *DomainMetrics) EligibilityFailed(kind string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(kind).Inc()
}
