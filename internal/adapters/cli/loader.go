package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/kirillkom/ragdesk/internal/bootstrap"
	"github.com/kirillkom/ragdesk/internal/config"
	"github.com/kirillkom/ragdesk/internal/observability/logging"
)

// DefaultLoader reads --config plus the environment and wires the real
// backend client. Logs go to stderr so stdout stays parseable.
func DefaultLoader(_ context.Context, opts *RootOptions) (*Services, error) {
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger := logging.NewTextLogger(os.Stderr, "ragdesk", level)
	slog.SetDefault(logger)

	app, err := bootstrap.New(cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	return &Services{
		Catalog:  app.CatalogUC,
		Chat:     app.ChatUC,
		PageSize: cfg.PageSize,
		Username: cfg.Username,
	}, nil
}
