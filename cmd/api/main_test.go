package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSetupAgentMetricsExposesMetrics(t *testing.T) {
	handler, agentMetrics := setupAgentMetrics()
	if handler == nil || agentMetrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	agentMetrics.ObserveTurn("book", "confirmed")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "advisor_dialog_turns_total") {
		t.Fatalf("expected turns counter to be exported")
	}
}
