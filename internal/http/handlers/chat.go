// Package handlers holds the HTTP endpoints of the booking agent.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/advisordesk/advisor-booking-agent/internal/dialog"
	"github.com/advisordesk/advisor-booking-agent/pkg/logging"
)

const maxMessageLength = 2000

// ChatRequest is the inbound chat turn payload.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse mirrors the dialog turn result back to the client.
type ChatResponse struct {
	SessionID string             `json:"session_id"`
	Reply     string             `json:"reply"`
	Result    *dialog.TurnResult `json:"result"`
}

// ChatHandler serves the conversational endpoint.
type ChatHandler struct {
	engine *dialog.Engine
	logger *logging.Logger
}

// NewChatHandler creates the chat endpoint handler.
func NewChatHandler(engine *dialog.Engine, logger *logging.Logger) *ChatHandler {
	if engine == nil {
		panic("handlers: dialog engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{engine: engine, logger: logger}
}

// HandleChat processes one conversation turn. A request without a
// session_id starts a new conversation and the generated id is returned
// for the client to carry forward.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(req.Message) > maxMessageLength {
		writeError(w, http.StatusBadRequest, "message too long")
		return
	}
	if req.SessionID == "" {
		req.SessionID = newSessionID()
	}

	result, err := h.engine.HandleTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("turn failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID: req.SessionID,
		Reply:     result.Reply,
		Result:    result,
	})
}

func newSessionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), suffix)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
