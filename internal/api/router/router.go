// Package router assembles the HTTP surface.
package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/meterflow/contatori/internal/backoffice"
	httpmiddleware "github.com/meterflow/contatori/internal/http/middleware"
	"github.com/meterflow/contatori/internal/imports"
	"github.com/meterflow/contatori/internal/voiceagent"
	"github.com/meterflow/contatori/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	VoiceWebhook       *voiceagent.Handler
	Backoffice         *backoffice.Handler
	ImportHandler      *imports.Handler
	MetricsHandler     http.Handler
	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: webhook, health, metrics.
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)
		if cfg.VoiceWebhook != nil {
			public.Post("/vapi-webhook", cfg.VoiceWebhook.HandleWebhook)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Dashboard API.
	if cfg.Backoffice != nil {
		r.Route("/api", func(api chi.Router) {
			api.Get("/dashboard", cfg.Backoffice.HandleDashboard)
			api.Get("/contatori", cfg.Backoffice.HandleListContatori)
			api.Get("/operatori", cfg.Backoffice.HandleListOperatori)
		})
	}

	// Admin endpoints behind JWT auth.
	if cfg.ImportHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Post("/import-excel", cfg.ImportHandler.HandleUpload)
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
