package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// disabledValue switches off an optional endpoint from the environment.
const disabledValue = "-"

type Config struct {
	AuthBaseURL string `yaml:"auth_base_url"`
	RAGBaseURL  string `yaml:"rag_base_url"`
	PageSize    int    `yaml:"page_size"`

	// CombinedChatPath selects server-side prompt composition. Empty means
	// the client composes the prompt and calls the plain chat endpoint.
	CombinedChatPath string `yaml:"combined_chat_path"`

	HTTPTimeoutSeconds    int     `yaml:"http_timeout_seconds"`
	ClientRateLimitRPS    float64 `yaml:"client_rate_limit_rps"`
	ClientRateLimitBurst  int     `yaml:"client_rate_limit_burst"`
	RetryMaxAttempts      int     `yaml:"retry_max_attempts"`
	BreakerEnabled        bool    `yaml:"breaker_enabled"`
	BreakerMinRequests    int     `yaml:"breaker_min_requests"`
	BreakerFailureRatio   float64 `yaml:"breaker_failure_ratio"`
	BreakerOpenTimeoutSec int     `yaml:"breaker_open_timeout_seconds"`

	LogLevel string `yaml:"log_level"`

	WebPort           string  `yaml:"web_port"`
	WebRateLimitRPS   float64 `yaml:"web_rate_limit_rps"`
	WebRateLimitBurst int     `yaml:"web_rate_limit_burst"`
	WebMaxInFlight    int     `yaml:"web_max_in_flight"`
	WebQueueWaitMS    int     `yaml:"web_queue_wait_ms"`

	Username string `yaml:"username"`
}

func Defaults() Config {
	return Config{
		AuthBaseURL: "http://localhost:8000",
		RAGBaseURL:  "http://localhost:8002",
		PageSize:    10,

		CombinedChatPath: "/rag/query",

		HTTPTimeoutSeconds:    120,
		ClientRateLimitRPS:    0,
		ClientRateLimitBurst:  1,
		RetryMaxAttempts:      1,
		BreakerEnabled:        true,
		BreakerMinRequests:    5,
		BreakerFailureRatio:   0.6,
		BreakerOpenTimeoutSec: 15,

		LogLevel: "info",

		WebPort:           "8080",
		WebRateLimitRPS:   20,
		WebRateLimitBurst: 40,
		WebMaxInFlight:    64,
		WebQueueWaitMS:    250,
	}
}

// Load reads configuration from the environment only.
func Load() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// LoadFile layers defaults, an optional YAML file and the environment, in
// that order.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.AuthBaseURL = mustEnv("RAGDESK_AUTH_BASE_URL", cfg.AuthBaseURL)
	cfg.RAGBaseURL = mustEnv("RAGDESK_RAG_BASE_URL", cfg.RAGBaseURL)
	cfg.PageSize = mustEnvInt("RAGDESK_PAGE_SIZE", cfg.PageSize)

	cfg.CombinedChatPath = mustEnv("RAGDESK_COMBINED_CHAT_PATH", cfg.CombinedChatPath)
	if cfg.CombinedChatPath == disabledValue {
		cfg.CombinedChatPath = ""
	}

	cfg.HTTPTimeoutSeconds = mustEnvInt("RAGDESK_HTTP_TIMEOUT_SECONDS", cfg.HTTPTimeoutSeconds)
	cfg.ClientRateLimitRPS = mustEnvFloat("RAGDESK_CLIENT_RATE_LIMIT_RPS", cfg.ClientRateLimitRPS)
	cfg.ClientRateLimitBurst = mustEnvInt("RAGDESK_CLIENT_RATE_LIMIT_BURST", cfg.ClientRateLimitBurst)
	cfg.RetryMaxAttempts = mustEnvInt("RAGDESK_RETRY_MAX_ATTEMPTS", cfg.RetryMaxAttempts)
	cfg.BreakerEnabled = mustEnvBool("RAGDESK_BREAKER_ENABLED", cfg.BreakerEnabled)
	cfg.BreakerMinRequests = mustEnvInt("RAGDESK_BREAKER_MIN_REQUESTS", cfg.BreakerMinRequests)
	cfg.BreakerFailureRatio = mustEnvFloat("RAGDESK_BREAKER_FAILURE_RATIO", cfg.BreakerFailureRatio)
	cfg.BreakerOpenTimeoutSec = mustEnvInt("RAGDESK_BREAKER_OPEN_TIMEOUT_SECONDS", cfg.BreakerOpenTimeoutSec)

	cfg.LogLevel = mustEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.WebPort = mustEnv("WEB_PORT", cfg.WebPort)
	cfg.WebRateLimitRPS = mustEnvFloat("WEB_RATE_LIMIT_RPS", cfg.WebRateLimitRPS)
	cfg.WebRateLimitBurst = mustEnvInt("WEB_RATE_LIMIT_BURST", cfg.WebRateLimitBurst)
	cfg.WebMaxInFlight = mustEnvInt("WEB_MAX_IN_FLIGHT", cfg.WebMaxInFlight)
	cfg.WebQueueWaitMS = mustEnvInt("WEB_QUEUE_WAIT_MS", cfg.WebQueueWaitMS)

	cfg.Username = mustEnv("RAGDESK_USERNAME", cfg.Username)
}

// Validate rejects configurations that would only fail at request time.
func (c Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{"auth_base_url": c.AuthBaseURL, "rag_base_url": c.RAGBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.CombinedChatPath != "" && !strings.HasPrefix(c.CombinedChatPath, "/") {
		errs = append(errs, fmt.Errorf("combined_chat_path must start with '/', got %q", c.CombinedChatPath))
	}
	return errors.Join(errs...)
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
