package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderOutcome labels the result of a commerce fulfilment attempt.
type OrderOutcome string

const (
	OrderOutcomeProcessed OrderOutcome = "processed"
	OrderOutcomeSkipped   OrderOutcome = "skipped"
	OrderOutcomeFailed    OrderOutcome = "failed"
	OrderOutcomeIgnored   OrderOutcome = "ignored"
)

// QuotaCreditKind labels where a quota increment came from.
type QuotaCreditKind string

const (
	QuotaCreditIncluded QuotaCreditKind = "included"
	QuotaCreditPaid     QuotaCreditKind = "paid"
	QuotaCreditManual   QuotaCreditKind = "manual"
)

// CommerceMetrics tracks order fulfilment and quota credits.
type CommerceMetrics struct {
	orders *prometheus.CounterVec
	quota  *prometheus.CounterVec
}

func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commerce_orders_total",
		Help:      "Commerce orders handled by outcome.",
	}, []string{"outcome"})
	quota := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_credits_total",
		Help:      "Licences credited to club quotas.",
	}, []string{"kind"})
	reg.MustRegister(orders, quota)
	return &CommerceMetrics{orders: orders, quota: quota}
}

func (c *CommerceMetrics) ObserveOrder(outcome OrderOutcome) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.WithLabelValues(normalizeLabel(string(outcome))).Inc()
}

func (c *CommerceMetrics) AddQuotaCredit(kind QuotaCreditKind, qty int) {
	if c == nil || c.quota == nil || qty <= 0 {
		return
	}
	c.quota.WithLabelValues(normalizeLabel(string(kind))).Add(float64(qty))
}
