package backoffice

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/meterflow/contatori/internal/calllog"
	"github.com/meterflow/contatori/pkg/logging"
)

type recentCallLister interface {
	RecentCalls(ctx context.Context, limit int) ([]calllog.Entry, error)
}

// Handler serves the dashboard and listing endpoints.
type Handler struct {
	service *Service
	calls   recentCallLister
	logger  *logging.Logger
}

// NewHandler creates a back-office handler.
func NewHandler(service *Service, calls recentCallLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, calls: calls, logger: logger}
}

// HandleDashboard is GET /api/dashboard: lifecycle counters plus the
// latest call activity.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.DashboardStats(ctx)
	if err != nil {
		h.logger.Error("backoffice: dashboard stats failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	recent := []calllog.Entry{}
	if h.calls != nil {
		recent, err = h.calls.RecentCalls(ctx, 10)
		if err != nil {
			h.logger.Error("backoffice: recent calls failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	h.writeJSON(w, map[string]any{
		"stats":       stats,
		"recentCalls": recent,
	})
}

// HandleListContatori is GET /api/contatori.
func (h *Handler) HandleListContatori(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.service.ListContatori(r.Context(), limit)
	if err != nil {
		h.logger.Error("backoffice: list contatori failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, rows)
}

// HandleListOperatori is GET /api/operatori.
func (h *Handler) HandleListOperatori(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListOperatori(r.Context())
	if err != nil {
		h.logger.Error("backoffice: list operatori failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, rows)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
