package metrics

import "github.com/prometheus/client_golang/prometheus"

// VoiceMetrics exposes counters/histograms for voice-agent function calls.
type VoiceMetrics struct {
	functionCalls   *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec
}

func NewVoiceMetrics(reg prometheus.Registerer) *VoiceMetrics {
	m := &VoiceMetrics{
		functionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contatori",
			Subsystem: "voice",
			Name:      "function_calls_total",
			Help:      "Total dispatched voice-agent function calls",
		}, []string{"function", "outcome"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contatori",
			Subsystem: "voice",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency of function-call dispatch",
			Buckets:   prometheus.DefBuckets,
		}, []string{"function"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.functionCalls, m.dispatchLatency)
	return m
}

func (m *VoiceMetrics) ObserveDispatch(function, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.functionCalls.WithLabelValues(function, outcome).Inc()
	m.dispatchLatency.WithLabelValues(function).Observe(seconds)
}

// NotifyMetrics tracks the best-effort operator notification channel.
type NotifyMetrics struct {
	notificationsTotal *prometheus.CounterVec
	queueDropped       prometheus.Counter
}

func NewNotifyMetrics(reg prometheus.Registerer) *NotifyMetrics {
	m := &NotifyMetrics{
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contatori",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total operator notification attempts by outcome",
		}, []string{"outcome"}),
		queueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contatori",
			Subsystem: "notify",
			Name:      "queue_dropped_total",
			Help:      "Notifications dropped because the queue was full",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.notificationsTotal, m.queueDropped)
	return m
}

func (m *NotifyMetrics) ObserveNotification(outcome string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(outcome).Inc()
}

func (m *NotifyMetrics) ObserveQueueDrop() {
	if m == nil {
		return
	}
	m.queueDropped.Inc()
}
