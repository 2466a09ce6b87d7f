package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Side effects run after commit
	AnchorOperations       *prometheus.CounterVec
	PinOperations          *prometheus.CounterVec
	HookFailures           *prometheus.CounterVec
	NotificationsPublished *prometheus.CounterVec

	// External call latency by collaborator
	ExternalLatency *prometheus.HistogramVec

	// Worker
	EmailsSent       *prometheus.CounterVec
	EmailRetries     prometheus.Counter
	DeliveryDuration prometheus.Histogram
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer), namespace, subsystem)
}

// New builds metrics on a private registry so tests can create as many as
// they need.
func New(namespace string) *Metrics {
	return newMetrics(promauto.With(prometheus.NewRegistry()), namespace, "")
}

func newMetrics(f promauto.Factory, namespace, subsystem string) *Metrics {
	return &Metrics{
		AnchorOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "anchor_operations_total",
			Help:      "Total number of hash anchoring calls",
		}, []string{"operation", "status"}),
		PinOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pin_operations_total",
			Help:      "Total number of IPFS pinning calls",
		}, []string{"operation", "status"}),
		HookFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "post_commit_hook_failures_total",
			Help:      "Total number of failed post-commit hooks",
		}, []string{"hook"}),
		NotificationsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_published_total",
			Help:      "Total number of notification events published to the broker",
		}, []string{"status"}),
		ExternalLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "external_call_duration_seconds",
			Help:      "Duration of calls to external collaborators",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"service"}),
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "emails_sent_total",
			Help:      "Total number of notification emails",
		}, []string{"status"}),
		EmailRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "email_retry_attempts_total",
			Help:      "Total number of email retry attempts",
		}),
		DeliveryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "delivery_duration_seconds",
			Help:      "Time spent delivering one notification event",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveAnchor records the outcome of an anchor call.
func (m *Metrics) ObserveAnchor(operation string, err error) {
	m.AnchorOperations.WithLabelValues(operation, status(err)).Inc()
}

// ObservePin records the outcome of a pinning call.
func (m *Metrics) ObservePin(operation string, err error) {
	m.PinOperations.WithLabelValues(operation, status(err)).Inc()
}

func (m *Metrics) ObservePublish(err error) {
	m.NotificationsPublished.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) ObserveEmail(err error) {
	m.EmailsSent.WithLabelValues(status(err)).Inc()
}
