package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics. Collectors are created unregistered;
// call Register to expose them.
type Metrics struct {
	// Chat
	RoutedQueries *prometheus.CounterVec
	AdviceLookups *prometheus.CounterVec
	ChatReplies   *prometheus.CounterVec

	// LLM
	LLMRequests *prometheus.CounterVec
	LLMLatency  prometheus.Histogram

	// Records
	Bookings        *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec

	// Worker
	NotificationsSent *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	return &Metrics{
		RoutedQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routed_queries_total",
			Help:      "Chat messages answered from the record store, by intent",
		}, []string{"intent"}),
		AdviceLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advice_lookups_total",
			Help:      "Knowledge base lookups, by result",
		}, []string{"result"}),
		ChatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_replies_total",
			Help:      "Chat replies, by source",
		}, []string{"source"}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Completion requests sent to the LLM provider, by outcome",
		}, []string{"outcome"}),
		LLMLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM completion requests",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		}),
		Bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Appointment booking attempts, by result",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events published to the broker, by type and status",
		}, []string{"type", "status"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Booking notifications handled by the worker, by status",
		}, []string{"status"}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.RoutedQueries,
		m.AdviceLookups,
		m.ChatReplies,
		m.LLMRequests,
		m.LLMLatency,
		m.Bookings,
		m.EventsPublished,
		m.NotificationsSent,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
