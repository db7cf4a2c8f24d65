package delivery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xzajyb/MXacc-sub002/internal/domain"
)

// Metrics are the queue's Prometheus collectors.
type Metrics struct {
	depth      prometheus.Gauge
	deliveries *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	dropped    prometheus.Counter
}

// NewMetrics registers the collectors on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mail_queue_depth",
			Help: "Email tasks waiting for the delivery worker.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_delivery_total",
			Help: "Delivery attempts by template kind, channel and result.",
		}, []string{"kind", "channel", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mail_delivery_duration_seconds",
			Help:    "Time spent dispatching one task, fallback included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mail_queue_dropped_total",
			Help: "Tasks discarded unsent at shutdown.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.depth, m.deliveries, m.duration, m.dropped)
	}
	return m
}

func (m *Metrics) observe(task domain.EmailTask, out domain.DeliveryOutcome, took time.Duration) {
	result := "success"
	if !out.Success {
		result = "failure"
	}
	channel := out.Channel
	if channel == "" {
		channel = "none"
	}
	m.deliveries.WithLabelValues(string(task.Kind), channel, result).Inc()
	m.duration.WithLabelValues(string(task.Kind)).Observe(took.Seconds())
}
