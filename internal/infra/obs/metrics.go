package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters and histograms for the booking flow. All methods are safe on a
// nil receiver so metrics can be disabled by passing nil around.
type Metrics struct {
	messagesTotal   *prometheus.CounterVec
	messageLatency  *prometheus.HistogramVec
	fetchesTotal    *prometheus.CounterVec
	outboxTotal     *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	spotCacheLookup *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkshare",
			Subsystem: "bus",
			Name:      "messages_total",
			Help:      "Commands and queries dispatched, by outcome",
		}, []string{"kind", "key", "outcome"}),
		messageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "parkshare",
			Subsystem: "bus",
			Name:      "message_duration_seconds",
			Help:      "Latency of command and query handlers",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "key"}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkshare",
			Subsystem: "availability",
			Name:      "fetches_total",
			Help:      "Availability fetches by outcome; superseded results were discarded",
		}, []string{"outcome"}),
		outboxTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkshare",
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox publish attempts by result",
		}, []string{"status"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "parkshare",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of calls to the Spot Directory and Reservation API",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		spotCacheLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkshare",
			Subsystem: "spots",
			Name:      "cache_lookups_total",
			Help:      "Spot cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.messageLatency, m.fetchesTotal, m.outboxTotal, m.backendLatency, m.spotCacheLookup)
	return m
}

func (m *Metrics) ObserveMessage(kind, key, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(kind, key, outcome).Inc()
	m.messageLatency.WithLabelValues(kind, key).Observe(seconds)
}

func (m *Metrics) ObserveFetch(outcome string) {
	if m == nil {
		return
	}
	m.fetchesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePublish(status string) {
	if m == nil {
		return
	}
	m.outboxTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveBackend(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.backendLatency.WithLabelValues(operation, status).Observe(seconds)
}

func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.spotCacheLookup.WithLabelValues(result).Inc()
}
