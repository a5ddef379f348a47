// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only forum tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/agora/internal/apperr"
	"github.com/starford/agora/internal/forum"
)

// Server wraps the MCP server with forum tools.
type Server struct {
	mcp *server.MCPServer
	svc *forum.Service
}

// New creates a new MCP server with all forum tools registered.
func New(svc *forum.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Agora",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_threads",
		mcp.WithDescription("Fuzzy search over forum threads. Title matches rank above content matches, "+
			"which rank above tag-only matches."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
	), s.searchThreads)

	s.mcp.AddTool(mcp.NewTool("read_thread",
		mcp.WithDescription("Read a thread with its tags and posts, newest post first."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Thread ID")),
	), s.readThread)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List all tags with their slugs."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("threads_by_tag",
		mcp.WithDescription("List threads carrying a tag, newest first."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Tag slug (see list_tags)")),
		mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
	), s.threadsByTag)

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

func (s *Server) searchThreads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.Search(ctx, query, req.GetInt("page", 1))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if page.Total == 0 {
		return mcp.NewToolResultText("no threads found"), nil
	}
	return jsonResult(page)
}

func (s *Server) readThread(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetThread(ctx, int64(id))
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("thread not found: %d", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(detail)
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.ListTags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags"), nil
	}
	lines := make([]string, len(tags))
	for i, t := range tags {
		lines[i] = t.Slug + "\t" + t.Name
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) threadsByTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, page, err := s.svc.ThreadsByTag(ctx, slug, req.GetInt("page", 1))
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("tag not found: %s", slug)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
