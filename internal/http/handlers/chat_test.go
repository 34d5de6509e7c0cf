package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisordesk/advisor-booking-agent/internal/availability"
	"github.com/advisordesk/advisor-booking-agent/internal/booking"
	"github.com/advisordesk/advisor-booking-agent/internal/clock"
	"github.com/advisordesk/advisor-booking-agent/internal/dialog"
	"github.com/advisordesk/advisor-booking-agent/internal/session"
)

func newChatHandler(t *testing.T) *ChatHandler {
	t.Helper()
	clk := clock.Fixed(time.Date(2026, 9, 1, 9, 0, 0, 0, clock.Location))
	registry, err := booking.NewRegistry(nil, clk, nil)
	require.NoError(t, err)
	engine := dialog.NewEngine(
		session.NewMemoryStore(),
		registry,
		availability.NewEngine(clk),
		clk,
		nil, nil, nil, nil,
	)
	return NewChatHandler(engine, nil)
}

func postChat(t *testing.T, h *ChatHandler, body string) (*httptest.ResponseRecorder, ChatResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleChat(rec, req)

	var resp ChatResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHandleChatStartsNewSession(t *testing.T) {
	h := newChatHandler(t)
	rec, resp := postChat(t, h, `{"message":"I want to book an appointment"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(resp.SessionID, "session_"), resp.SessionID)
	assert.NotEmpty(t, resp.Reply)
	require.NotNil(t, resp.Result)
	assert.Equal(t, session.StateDisclaimer, resp.Result.Session.State)
}

func TestHandleChatContinuesSession(t *testing.T) {
	h := newChatHandler(t)
	_, first := postChat(t, h, `{"message":"book an appointment"}`)

	rec, second := postChat(t, h, `{"session_id":"`+first.SessionID+`","message":"yes"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, session.StateTopicSelection, second.Result.Session.State)
}

func TestHandleChatRejectsBadInput(t *testing.T) {
	h := newChatHandler(t)

	rec, _ := postChat(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = postChat(t, h, `{"message":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = postChat(t, h, `{"message":"`+strings.Repeat("a", maxMessageLength+1)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}
