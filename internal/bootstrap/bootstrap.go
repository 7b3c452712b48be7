package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/ragdesk/internal/config"
	"github.com/kirillkom/ragdesk/internal/core/ports"
	"github.com/kirillkom/ragdesk/internal/core/usecase"
	"github.com/kirillkom/ragdesk/internal/infrastructure/extractor"
	"github.com/kirillkom/ragdesk/internal/infrastructure/resilience"
	"github.com/kirillkom/ragdesk/internal/infrastructure/transport/httpjson"
	"github.com/kirillkom/ragdesk/internal/observability/metrics"
)

const serviceName = "ragdesk"

type App struct {
	Config config.Config

	Registry      *prometheus.Registry
	ClientMetrics *metrics.ClientMetrics
	Executor      *resilience.Executor

	CatalogUC *usecase.CatalogUseCase
	ChatUC    *usecase.ChatUseCase
}

type Options struct {
	// Registry enables client metrics when set.
	Registry   *prometheus.Registry
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// New composes the client in dependency order: transport, resilience,
// extractors, then the use cases.
func New(cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var clientMetrics *metrics.ClientMetrics
	var recorder ports.UsageRecorder
	if opts.Registry != nil {
		clientMetrics = metrics.NewClientMetrics(opts.Registry, serviceName)
		recorder = clientMetrics
	}

	client := httpjson.New(httpjson.Options{
		AuthBaseURL: cfg.AuthBaseURL,
		RAGBaseURL:  cfg.RAGBaseURL,
		Timeout:     time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		HTTPClient:  opts.HTTPClient,
		Limiter:     httpjson.NewRateLimiter(cfg.ClientRateLimitRPS, cfg.ClientRateLimitBurst),
		Metrics:     clientMetrics,
		Logger:      logger,
	})
	executor := resilience.NewExecutor(resilienceConfig(cfg)).WithLogger(logger)
	transport := resilience.NewTransport(client, executor)

	catalogUC := usecase.NewCatalogUseCase(transport, extractor.NewDefaultRegistry(), recorder, cfg.PageSize)
	chatUC := usecase.NewChatUseCase(transport, recorder, cfg.CombinedChatPath)

	logger.Info("client_configured",
		"auth_base_url", cfg.AuthBaseURL,
		"rag_base_url", cfg.RAGBaseURL,
		"chat_mode", string(chatUC.Mode()),
		"page_size", catalogUC.PageSize(),
		"breaker_enabled", cfg.BreakerEnabled,
	)

	return &App{
		Config:        cfg,
		Registry:      opts.Registry,
		ClientMetrics: clientMetrics,
		Executor:      executor,
		CatalogUC:     catalogUC,
		ChatUC:        chatUC,
	}, nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = cfg.RetryMaxAttempts
	rc.BreakerEnabled = cfg.BreakerEnabled
	if cfg.BreakerMinRequests > 0 {
		rc.BreakerMinRequests = uint32(cfg.BreakerMinRequests)
	}
	rc.BreakerFailureRatio = cfg.BreakerFailureRatio
	rc.BreakerOpenTimeout = time.Duration(cfg.BreakerOpenTimeoutSec) * time.Second
	return rc
}
