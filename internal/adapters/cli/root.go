package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kirillkom/ragdesk/internal/core/ports"
)

// CatalogService is what the document commands drive.
type CatalogService interface {
	ports.DocumentCatalog
	ports.DocumentUploader
	Ping(ctx context.Context) error
}

// Services are the use cases behind the commands.
type Services struct {
	Catalog  CatalogService
	Chat     ports.ChatOrchestrator
	PageSize int
	// Username is shown by the interactive chat; empty means anonymous.
	Username string
}

// Loader resolves configuration and builds Services. It runs only for
// commands that talk to a backend.
type Loader func(ctx context.Context, opts *RootOptions) (*Services, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Version    string

	load     Loader
	once     sync.Once
	services *Services
	loadErr  error
}

func (o *RootOptions) Services(ctx context.Context) (*Services, error) {
	o.once.Do(func() {
		if o.load == nil {
			o.loadErr = errors.New("no service loader configured")
			return
		}
		o.services, o.loadErr = o.load(ctx, o)
	})
	return o.services, o.loadErr
}

// NewRootCommand creates the ragdesk command tree.
func NewRootCommand(load Loader, version string) *cobra.Command {
	opts := &RootOptions{Version: version, load: load}

	cmd := &cobra.Command{
		Use:           "ragdesk",
		Short:         "Document catalog and retrieval-augmented chat client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file (environment variables override it)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging to stderr")

	cmd.AddCommand(NewDocsCommand(opts))
	cmd.AddCommand(NewChatCommand(opts))
	cmd.AddCommand(NewRetrieveCommand(opts))
	cmd.AddCommand(NewMCPCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

func NewVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ragdesk version %s\n", opts.Version)
		},
	}
}
