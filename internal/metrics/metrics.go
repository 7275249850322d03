package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the bridge. It satisfies
// application.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Conversation metrics
	ConversationsStarted prometheus.Counter
	ConversationsEnded   *prometheus.CounterVec
	ConversationsActive  prometheus.Gauge
	TurnsTotal           prometheus.Counter

	// Dialogue service metrics
	ActionsExecuted *prometheus.CounterVec
	ActionLimitHits prometheus.Counter

	// Button metrics
	DisambiguationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ConversationsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "conversations_started_total",
				Help: "Total number of conversations started",
			},
		),
		ConversationsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conversations_ended_total",
				Help: "Total number of conversations ended, by reason",
			},
			[]string{"reason"},
		),
		ConversationsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "conversations_active",
				Help: "Number of conversations in progress",
			},
		),
		TurnsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "turns_total",
				Help: "Total number of completed conversation turns",
			},
		),

		ActionsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actions_executed_total",
				Help: "Total number of dialogue actions executed, by action name",
			},
			[]string{"action"},
		),
		ActionLimitHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "action_limit_reached_total",
				Help: "Total number of turns cut short by the per-turn action cap",
			},
		),

		DisambiguationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disambiguation_total",
				Help: "Total number of button disambiguation steps, by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		m.ConversationsStarted,
		m.ConversationsEnded,
		m.ConversationsActive,
		m.TurnsTotal,
		m.ActionsExecuted,
		m.ActionLimitHits,
		m.DisambiguationsTotal,
	)

	return m
}

func (m *Metrics) ConversationStarted() {
	m.ConversationsStarted.Inc()
	m.ConversationsActive.Inc()
}

func (m *Metrics) ConversationEnded(reason string) {
	m.ConversationsEnded.WithLabelValues(reason).Inc()
	m.ConversationsActive.Dec()
}

func (m *Metrics) TurnCompleted() {
	m.TurnsTotal.Inc()
}

func (m *Metrics) ActionExecuted(action string) {
	m.ActionsExecuted.WithLabelValues(action).Inc()
}

func (m *Metrics) ActionLimitReached() {
	m.ActionLimitHits.Inc()
}

func (m *Metrics) Disambiguation(outcome string) {
	m.DisambiguationsTotal.WithLabelValues(outcome).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
