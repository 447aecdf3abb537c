package voiceagent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/meterflow/contatori/pkg/logging"
)

const maxWebhookBody = 1 << 20

type callRecorder interface {
	AppendTranscript(ctx context.Context, callID string, fragment json.RawMessage) error
	FinalizeCall(ctx context.Context, callID string, duration int, result string, report json.RawMessage) error
}

// Handler terminates POST /vapi-webhook. Function calls go through the
// dispatcher; call-progress messages feed the call log.
type Handler struct {
	dispatcher *Dispatcher
	calls      callRecorder
	secret     string
	logger     *logging.Logger
}

// HandlerConfig configures the webhook handler.
type HandlerConfig struct {
	Dispatcher *Dispatcher
	Calls      callRecorder
	// Secret, when set, must match the X-Vapi-Secret request header.
	Secret string
	Logger *logging.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		dispatcher: cfg.Dispatcher,
		calls:      cfg.Calls,
		secret:     cfg.Secret,
		logger:     cfg.Logger,
	}
}

// HandleWebhook is the HTTP handler for POST /vapi-webhook.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.secret != "" && r.Header.Get("X-Vapi-Secret") != h.secret {
		h.logger.Warn("voiceagent: webhook secret mismatch", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("voiceagent: failed to read body", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Error("voiceagent: failed to parse webhook", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	callID := ""
	if req.Call != nil {
		callID = req.Call.ID
	}
	h.logger.Info("voiceagent: webhook received", "type", req.Message.Type, "call_id", callID)

	switch req.Message.Type {
	case "function-call":
		h.handleFunctionCall(ctx, w, req.Message.FunctionCall)
	case "status-update":
		if req.Message.Status == "in-progress" {
			h.logger.Info("voiceagent: call started", "call_id", callID)
		}
		h.writeJSON(w, http.StatusOK, AckResponse{Success: true})
	case "transcript":
		if callID != "" && h.calls != nil && len(req.Message.Transcript) > 0 {
			if err := h.calls.AppendTranscript(ctx, callID, req.Message.Transcript); err != nil {
				h.logger.Error("voiceagent: transcript log failed", "error", err, "call_id", callID)
			}
		}
		h.writeJSON(w, http.StatusOK, AckResponse{Success: true})
	case "end-of-call-report":
		if callID != "" && h.calls != nil {
			if err := h.calls.FinalizeCall(ctx, callID,
				req.Message.DurationSeconds, req.Message.EndedReason, req.Message.Analysis,
			); err != nil {
				h.logger.Error("voiceagent: end-of-call log failed", "error", err, "call_id", callID)
			}
		}
		h.writeJSON(w, http.StatusOK, AckResponse{Success: true})
	default:
		h.writeJSON(w, http.StatusOK, AckResponse{Success: true})
	}
}

func (h *Handler) handleFunctionCall(ctx context.Context, w http.ResponseWriter, fc *FunctionCall) {
	if fc == nil {
		http.Error(w, "missing functionCall", http.StatusBadRequest)
		return
	}
	result := h.dispatcher.Dispatch(ctx, fc.Name, fc.Parameters)
	h.writeJSON(w, http.StatusOK, WebhookResponse{Result: result})
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
