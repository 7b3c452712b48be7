package cli

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/ragdesk/internal/adapters/mcp"
)

func NewMCPCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog and chat as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on standard input and output.

Tools: list_documents, view_document, retrieve_passages, ask, knowledge_stats.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.Services(cmd.Context())
			if err != nil {
				return err
			}
			server, err := mcp.NewServer(&mcp.Ports{Catalog: svc.Catalog, Chat: svc.Chat}, opts.Version)
			if err != nil {
				return err
			}
			return server.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
