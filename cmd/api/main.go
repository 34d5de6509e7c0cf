package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/advisordesk/advisor-booking-agent/internal/api/router"
	"github.com/advisordesk/advisor-booking-agent/internal/app/bootstrap"
	"github.com/advisordesk/advisor-booking-agent/internal/availability"
	"github.com/advisordesk/advisor-booking-agent/internal/booking"
	"github.com/advisordesk/advisor-booking-agent/internal/clock"
	appconfig "github.com/advisordesk/advisor-booking-agent/internal/config"
	"github.com/advisordesk/advisor-booking-agent/internal/dialog"
	"github.com/advisordesk/advisor-booking-agent/internal/http/handlers"
	"github.com/advisordesk/advisor-booking-agent/internal/observability/metrics"
	"github.com/advisordesk/advisor-booking-agent/internal/sideeffect"
	"github.com/advisordesk/advisor-booking-agent/pkg/logging"
)

func main() {
	// .env is optional, real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting advisor booking agent",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	clk := clock.SystemClock{}

	registry, err := booking.NewRegistry(booking.NewFileSnapshotter(cfg.BookingsFile), clk, logger)
	if err != nil {
		logger.Error("failed to load booking registry", "error", err)
		os.Exit(1)
	}

	store := bootstrap.BuildSessionStore(ctx, cfg, logger)
	classifier, closeClassifier := bootstrap.BuildClassifier(ctx, cfg, logger)
	defer closeClassifier()

	ledger, pool := bootstrap.BuildLedger(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}
	calendar := bootstrap.BuildCalendar(ctx, cfg, logger)
	notifier := bootstrap.BuildNotifier(cfg, logger)
	var ledgerIface sideeffect.Ledger
	if ledger != nil {
		ledgerIface = ledger
	}
	dispatcher := sideeffect.NewDispatcher(calendar, ledgerIface, notifier, registry, cfg.SideEffectTimeout, logger)

	metricsHandler, agentMetrics := setupAgentMetrics()

	engine := dialog.NewEngine(
		store,
		registry,
		availability.NewEngine(clk),
		clk,
		classifier,
		dispatcher,
		logger,
		agentMetrics,
	)

	r := router.New(&router.Config{
		Logger:         logger,
		ChatHandler:    handlers.NewChatHandler(engine, logger),
		MetricsHandler: metricsHandler,
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// setupAgentMetrics builds the Prometheus registry and the /metrics handler.
func setupAgentMetrics() (http.Handler, *metrics.AgentMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	agentMetrics := metrics.NewAgentMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), agentMetrics
}
