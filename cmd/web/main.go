package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpadapter "github.com/kirillkom/ragdesk/internal/adapters/http"
	"github.com/kirillkom/ragdesk/internal/bootstrap"
	"github.com/kirillkom/ragdesk/internal/config"
	"github.com/kirillkom/ragdesk/internal/observability/logging"
	"github.com/kirillkom/ragdesk/internal/observability/metrics"
)

const serviceName = "ragdesk-web"

func main() {
	cfg, err := config.LoadFile(os.Getenv("RAGDESK_CONFIG"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewHTTPServerMetrics(registry, serviceName)

	app, err := bootstrap.New(cfg, bootstrap.Options{Registry: registry, Logger: logger})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	router := httpadapter.NewRouter(cfg, app.CatalogUC, app.ChatUC, nil, serverMetrics).
		WithBreakers(func() map[string]string {
			states := make(map[string]string)
			for _, s := range app.Executor.States() {
				states[s.Service] = s.State
			}
			return states
		})

	server := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTPTimeoutSeconds+30) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("web_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("web_shutdown_failed", "error", err)
	}
}
