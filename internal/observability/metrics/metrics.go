// Package metrics exposes Prometheus collectors for the booking agent.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// AgentMetrics exposes counters/histograms for conversation turns and
// booking mutations. All record methods are nil-safe so callers can pass
// a nil *AgentMetrics in tests.
type AgentMetrics struct {
	turnsTotal      *prometheus.CounterVec
	guardrailBlocks *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	slotConflicts   prometheus.Counter
	turnLatency     prometheus.Histogram
}

func NewAgentMetrics(reg prometheus.Registerer) *AgentMetrics {
	m := &AgentMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Subsystem: "dialog",
			Name:      "turns_total",
			Help:      "Total conversation turns processed",
		}, []string{"intent", "outcome"}),
		guardrailBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Subsystem: "dialog",
			Name:      "guardrail_blocks_total",
			Help:      "Total messages refused by the guardrail",
		}, []string{"reason"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Subsystem: "booking",
			Name:      "mutations_total",
			Help:      "Total booking registry mutations",
		}, []string{"status"}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "advisor",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Total commit attempts rejected on a taken slot",
		}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "advisor",
			Subsystem: "dialog",
			Name:      "turn_latency_seconds",
			Help:      "Latency of conversation turn handling",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.guardrailBlocks, m.bookingsTotal, m.slotConflicts, m.turnLatency)
	return m
}

func (m *AgentMetrics) ObserveTurn(intent, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, outcome).Inc()
}

func (m *AgentMetrics) ObserveGuardrailBlock(reason string) {
	if m == nil {
		return
	}
	m.guardrailBlocks.WithLabelValues(reason).Inc()
}

func (m *AgentMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *AgentMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflicts.Inc()
}

func (m *AgentMetrics) ObserveTurnLatency(seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.Observe(seconds)
}
