package mcp

import (
	"context"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/ragdesk/internal/core/ports"
)

const serverName = "ragdesk"

// Ports aggregates the inbound ports the tools call.
type Ports struct {
	Catalog ports.DocumentCatalog
	Chat    ports.ChatOrchestrator
}

func (p *Ports) Validate() error {
	if p == nil || p.Catalog == nil {
		return ErrMissingCatalog
	}
	if p.Chat == nil {
		return ErrMissingChat
	}
	return nil
}

type Server struct {
	ports  *Ports
	server *server.MCPServer
}

func NewServer(p *Ports, version string) (*Server, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	s := &Server{
		ports: p,
		server: server.NewMCPServer(serverName, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s, nil
}

// Run serves JSON-RPC over the given streams until ctx is cancelled.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.server).Listen(ctx, in, out)
}
