// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the tool catalog for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/store"
	"github.com/starford/raido/internal/toolservice"
)

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *toolservice.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *toolservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_tools",
		mcp.WithDescription("Full-text search across AI tool names, descriptions, tags and categories. "+
			"Supports prefix queries like \"chat*\"."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20, max 100)")),
	), s.searchTools)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List all active categories with their tool counts, in display order."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("get_tool",
		mcp.WithDescription("Fetch one tool by id, including its category and tags."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Tool id, either \"42\" or \"tool-42\"")),
	), s.getTool)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 20)
	results, err := s.svc.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := s.svc.ListCategories(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(cats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := store.ExtractLegacyID(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid tool id: %s", raw)), nil
	}
	tool, err := s.svc.GetTool(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", raw)), nil
	}
	out, _ := json.MarshalIndent(tool, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
