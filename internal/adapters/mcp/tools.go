package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/ragdesk/internal/core/domain"
)

type DocumentOutput struct {
	ID       string   `json:"doc_id"`
	Title    string   `json:"title,omitempty"`
	Author   string   `json:"author,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Content  string   `json:"content,omitempty"`
	Resolved bool     `json:"resolved"`
}

type ListDocumentsOutput struct {
	Documents  []DocumentOutput `json:"documents"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	TotalCount int              `json:"total_count"`
	Source     string           `json:"source"`
}

type RetrieveOutput struct {
	Query    string   `json:"query"`
	Passages []string `json:"passages"`
}

type StatsOutput struct {
	Count int `json:"count"`
}

type AskOutput struct {
	Answer    string            `json:"answer"`
	Citations []domain.Citation `json:"citations,omitempty"`
}

func (s *Server) registerTools() {
	s.server.AddTools(
		server.ServerTool{
			Tool: mcp.NewTool("list_documents",
				mcp.WithDescription("List documents in the knowledge base, optionally filtered by a search term"),
				mcp.WithNumber("page", mcp.Description("1-based page number"), mcp.DefaultNumber(1)),
				mcp.WithString("search", mcp.Description("case-insensitive filter on title or content")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleListDocuments,
		},
		server.ServerTool{
			Tool: mcp.NewTool("view_document",
				mcp.WithDescription("Show one document with its tags and full content"),
				mcp.WithString("doc_id", mcp.Required(), mcp.Description("document id")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleViewDocument,
		},
		server.ServerTool{
			Tool: mcp.NewTool("retrieve_passages",
				mcp.WithDescription("Retrieve knowledge base passages relevant to a query"),
				mcp.WithString("query", mcp.Required(), mcp.Description("search query")),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleRetrieve,
		},
		server.ServerTool{
			Tool: mcp.NewTool("ask",
				mcp.WithDescription("Ask the assistant a question, optionally grounded in retrieved passages"),
				mcp.WithString("question", mcp.Required(), mcp.Description("the question")),
				mcp.WithBoolean("use_retrieval", mcp.Description("augment the question with knowledge base passages"), mcp.DefaultBool(true)),
				mcp.WithDestructiveHintAnnotation(false),
			),
			Handler: s.handleAsk,
		},
		server.ServerTool{
			Tool: mcp.NewTool("knowledge_stats",
				mcp.WithDescription("Report how many entries the knowledge base index holds"),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleStats,
		},
	)
}

func (s *Server) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.ports.Catalog.ListDocuments(ctx, req.GetInt("page", 1), req.GetString("search", ""))
	if err != nil {
		return toolError("list documents", err), nil
	}

	out := ListDocumentsOutput{
		Documents:  make([]DocumentOutput, 0, len(page.Items)),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		TotalCount: page.TotalCount,
		Source:     string(page.Source),
	}
	var text strings.Builder
	fmt.Fprintf(&text, "Page %d of %d, %d documents\n", page.Page, page.TotalPages, page.TotalCount)
	for _, doc := range page.Items {
		out.Documents = append(out.Documents, documentOutput(doc))
		fmt.Fprintf(&text, "- %s: %s\n", doc.ID, doc.DisplayTitle())
	}
	return mcp.NewToolResultStructured(out, text.String()), nil
}

func (s *Server) handleViewDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("doc_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.ports.Catalog.FetchDocumentDetail(ctx, id)
	if err != nil {
		return toolError("view document", err), nil
	}
	result, err := mcp.NewToolResultJSON(documentOutput(*doc))
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", id, err)
	}
	return result, nil
}

func (s *Server) handleRetrieve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	found, err := s.ports.Chat.Retrieve(ctx, query)
	if err != nil {
		return toolError("retrieve passages", err), nil
	}
	out := RetrieveOutput{Query: found.Query, Passages: found.Passages}
	if out.Passages == nil {
		out.Passages = []string{}
	}
	if len(out.Passages) == 0 {
		return mcp.NewToolResultStructured(out, "No matching passages in the knowledge base."), nil
	}
	return mcp.NewToolResultStructured(out, strings.Join(out.Passages, "\n\n")), nil
}

func (s *Server) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	turn, ok := s.ports.Chat.SendTurn(ctx, question, req.GetBool("use_retrieval", true))
	if !ok {
		return mcp.NewToolResultError("question is empty"), nil
	}
	if turn.Failed {
		return mcp.NewToolResultError(turn.Text), nil
	}
	return mcp.NewToolResultStructured(AskOutput{Answer: turn.Text, Citations: turn.Citations}, turn.Text), nil
}

func (s *Server) handleStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.ports.Chat.Stats(ctx)
	if err != nil {
		return toolError("knowledge base stats", err), nil
	}
	text := fmt.Sprintf("Knowledge base entries: %d", stats.Count)
	return mcp.NewToolResultStructured(StatsOutput{Count: stats.Count}, text), nil
}

func documentOutput(doc domain.DocumentRecord) DocumentOutput {
	return DocumentOutput{
		ID:       doc.ID,
		Title:    doc.Title,
		Author:   doc.Author,
		Tags:     doc.Tags,
		Content:  doc.Content,
		Resolved: doc.Resolved,
	}
}

func toolError(operation string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(operation + " failed: " + domain.Detail(err))
}
