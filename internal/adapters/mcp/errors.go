// Package mcp exposes the document catalog and chat operations as Model
// Context Protocol tools over stdio.
package mcp

import "errors"

var (
	ErrMissingCatalog = errors.New("mcp: document catalog is required")
	ErrMissingChat    = errors.New("mcp: chat orchestrator is required")
)
