package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestAgentMetricsObserve(t *testing.T) {
	m := NewAgentMetrics(prometheus.NewRegistry())
	m.ObserveTurn("book", "confirmed")
	m.ObserveGuardrailBlock("pii_phone")
	m.ObserveBooking("confirmed")
	m.ObserveSlotConflict()
	m.ObserveTurnLatency(0.05)
}

func TestAgentMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAgentMetrics(reg)
	m.ObserveTurn("cancel", "cancellation_complete")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestAgentMetricsNilSafe(t *testing.T) {
	var m *AgentMetrics
	m.ObserveTurn("book", "confirmed")
	m.ObserveGuardrailBlock("reason")
	m.ObserveBooking("cancelled")
	m.ObserveSlotConflict()
	m.ObserveTurnLatency(0.1)
}
