package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meterflow/contatori/internal/api/router"
	"github.com/meterflow/contatori/internal/appointments"
	"github.com/meterflow/contatori/internal/backoffice"
	"github.com/meterflow/contatori/internal/calllog"
	appconfig "github.com/meterflow/contatori/internal/config"
	"github.com/meterflow/contatori/internal/imports"
	"github.com/meterflow/contatori/internal/messaging"
	"github.com/meterflow/contatori/internal/notify"
	"github.com/meterflow/contatori/internal/observability/metrics"
	"github.com/meterflow/contatori/internal/voiceagent"
	"github.com/meterflow/contatori/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting contatori API server", "env", cfg.Env, "port", cfg.Port)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// pgx pool for the transactional appointment store.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// database/sql handle for the call log, imports and dashboard reads.
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	voiceMetrics := metrics.NewVoiceMetrics(nil)
	notifyMetrics := metrics.NewNotifyMetrics(nil)

	repo := appointments.NewRepository(pool, cfg.RescheduleActor)
	calls := calllog.NewService(db)

	var sms messaging.SMSSender
	if cfg.GatewayAPIToken != "" {
		sms = messaging.NewGatewaySender(messaging.GatewayConfig{
			Token:   cfg.GatewayAPIToken,
			Sender:  cfg.SMSSenderName,
			BaseURL: cfg.GatewayAPIBaseURL,
			Timeout: cfg.SMSTimeout,
			Logger:  logger,
		})
	} else {
		logger.Warn("GATEWAY_API_TOKEN not set, operator SMS disabled")
		sms = messaging.NewStubSender(logger)
	}

	notifier := notify.NewNotifier(repo, sms, notifyMetrics, logger)
	dispatcherQueue := notify.NewDispatcher(notifier, cfg.NotifyQueueSize, cfg.NotifySendTimeout, notifyMetrics, logger)
	go dispatcherQueue.Run(ctx)

	dispatcher := voiceagent.NewDispatcher(repo, calls, dispatcherQueue, voiceMetrics, logger)
	webhook := voiceagent.NewHandler(voiceagent.HandlerConfig{
		Dispatcher: dispatcher,
		Calls:      calls,
		Secret:     cfg.VapiServerSecret,
		Logger:     logger,
	})

	backofficeHandler := backoffice.NewHandler(backoffice.NewService(db), calls, logger)
	importHandler := imports.NewHandler(imports.NewImporter(db, logger), logger)

	r := router.New(&router.Config{
		Logger:             logger,
		VoiceWebhook:       webhook,
		Backoffice:         backofficeHandler,
		ImportHandler:      importHandler,
		MetricsHandler:     promhttp.Handler(),
		AdminJWTSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// The notify dispatcher drains its queue when ctx is cancelled; give
	// the HTTP server its own shutdown window.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
