package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	ReschedulesTotal   *prometheus.CounterVec
	SessionTransitions *prometheus.CounterVec
	ExpensesTotal      *prometheus.CounterVec
	ExpenseAmountTotal *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec

	StoreOpDuration *prometheus.HistogramVec

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

// NewCollector registers the service's series on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func NewCollector(serviceName string, reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		ReschedulesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "reschedules_total",
			Help:      "Drag-to-reschedule attempts by outcome.",
		}, []string{"outcome"}),

		SessionTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "sessions",
			Name:      "transitions_total",
			Help:      "Doctor session transitions by kind.",
		}, []string{"transition"}),

		ExpensesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "billing",
			Name:      "expenses_total",
			Help:      "Ledger expenses created for doctor fees by kind.",
		}, []string{"kind"}),

		ExpenseAmountTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "billing",
			Name:      "expense_amount_total",
			Help:      "Sum of doctor fee expenses in minor currency units by kind.",
		}, []string{"kind"}),

		NotificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Reschedule notifications by result.",
		}, []string{"result"}),

		StoreOpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Store call latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation", "collection"}),

		AuditEntriesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// The helpers below tolerate a nil Collector so components can run without metrics.

func (c *Collector) ObserveStore(operation, collection string, start time.Time) {
	if c == nil {
		return
	}
	c.StoreOpDuration.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
}

func (c *Collector) Reschedule(outcome string) {
	if c == nil {
		return
	}
	c.ReschedulesTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) SessionTransition(transition string) {
	if c == nil {
		return
	}
	c.SessionTransitions.WithLabelValues(transition).Inc()
}

func (c *Collector) Expense(kind string, amount int64) {
	if c == nil {
		return
	}
	c.ExpensesTotal.WithLabelValues(kind).Inc()
	c.ExpenseAmountTotal.WithLabelValues(kind).Add(float64(amount))
}

func (c *Collector) Notification(result string) {
	if c == nil {
		return
	}
	c.NotificationsTotal.WithLabelValues(result).Inc()
}
