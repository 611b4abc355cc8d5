package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registration admission and payments.
type Metrics struct {
	// Admission outcomes by result code and store mode
	Admissions *prometheus.CounterVec

	AdmissionLatency *prometheus.HistogramVec

	// Payment transitions by outcome; duplicates are labelled separately
	PaymentTransitions *prometheus.CounterVec

	CapacityReleases *prometheus.CounterVec

	ContentionRetries prometheus.Counter

	// 1 while requests are served from the fallback store
	FallbackActive prometheus.Gauge

	Failovers prometheus.Counter

	EventPublishFailures *prometheus.CounterVec
}

// New creates a new Metrics instance registered on the default registry.
func New() *Metrics {
	return &Metrics{
		Admissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marathon_admissions_total",
			Help: "Registration admission attempts by outcome and store mode",
		}, []string{"outcome", "mode"}),

		AdmissionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marathon_admission_duration_seconds",
			Help:    "Duration of the admission unit including retries",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"mode"}),

		PaymentTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marathon_payment_transitions_total",
			Help: "Applied payment outcomes by target status and result",
		}, []string{"status", "result"}),

		CapacityReleases: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marathon_capacity_releases_total",
			Help: "Race slots released by cause",
		}, []string{"cause"}),

		ContentionRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marathon_contention_retries_total",
			Help: "Race transactions retried after a transient conflict",
		}),

		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "marathon_store_fallback_active",
			Help: "1 while the durable store circuit is open",
		}),

		Failovers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marathon_store_failovers_total",
			Help: "Requests re-run on the fallback store after the durable store was unavailable",
		}),

		EventPublishFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marathon_event_publish_failures_total",
			Help: "Domain events that could not be published",
		}, []string{"type"}),
	}
}

func (m *Metrics) IncrementAdmission(outcome, mode string) {
	if m != nil {
		m.Admissions.WithLabelValues(outcome, mode).Inc()
	}
}

func (m *Metrics) ObserveAdmissionLatency(mode string, d time.Duration) {
	if m != nil {
		m.AdmissionLatency.WithLabelValues(mode).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementPaymentTransition(status, result string) {
	if m != nil {
		m.PaymentTransitions.WithLabelValues(status, result).Inc()
	}
}

func (m *Metrics) IncrementCapacityRelease(cause string) {
	if m != nil {
		m.CapacityReleases.WithLabelValues(cause).Inc()
	}
}

func (m *Metrics) IncrementContentionRetry() {
	if m != nil {
		m.ContentionRetries.Inc()
	}
}

func (m *Metrics) SetFallbackActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.FallbackActive.Set(1)
		return
	}
	m.FallbackActive.Set(0)
}

func (m *Metrics) IncrementFailover() {
	if m != nil {
		m.Failovers.Inc()
	}
}

func (m *Metrics) IncrementEventPublishFailure(eventType string) {
	if m != nil {
		m.EventPublishFailures.WithLabelValues(eventType).Inc()
	}
}
