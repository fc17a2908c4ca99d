// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes echovault sync tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/echovault/internal/apperr"
	"github.com/starford/echovault/internal/syncservice"
)

const formatURI = "echovault://vault-format"

// Server wraps the MCP server with echovault tools.
type Server struct {
	mcp *server.MCPServer
	svc *syncservice.Service
}

// New creates a new MCP server with all echovault tools registered.
func New(svc *syncservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Echovault",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_now",
		mcp.WithDescription("Pull new voice captures into the vault and reconcile todos. "+
			"Returns counts for the run. Reports skipped when a sync is already running."),
	), s.syncNow)

	s.mcp.AddTool(mcp.NewTool("sync_status",
		mcp.WithDescription("Show whether a sync is running, the capture checkpoint and the last recorded run."),
	), s.syncStatus)

	s.mcp.AddTool(mcp.NewTool("pending_captures",
		mcp.WithDescription("Count captures on the server that have not been synced yet."),
	), s.pendingCaptures)

	s.mcp.AddTool(mcp.NewTool("read_daily_note",
		mcp.WithDescription("Read a daily note with its parsed tasks. "+
			"Read the format first via get_vault_format or the echovault://vault-format resource."),
		mcp.WithString("date", mcp.Description("YYYY-MM-DD, 'today' or an expression like 'yesterday' (default today)")),
		mcp.WithBoolean("create", mcp.Description("Create the note from the template when missing")),
	), s.readDailyNote)

	s.mcp.AddTool(mcp.NewTool("get_vault_format",
		mcp.WithDescription("Returns how captures, markers and syncable todos are laid out in daily notes."),
	), s.getVaultFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Vault Format",
			mcp.WithResourceDescription("Layout of synced captures and todos in daily notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readVaultFormatResource,
	)

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

func (s *Server) syncNow(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.svc.Sync(ctx)
	if res.Skipped {
		return mcp.NewToolResultText("skipped: a sync is already running"), nil
	}
	return jsonResult(res)
}

func (s *Server) syncStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.svc.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func (s *Server) pendingCaptures(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.svc.Pending(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNotConfigured) {
			return mcp.NewToolResultError("remote server is not configured"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (s *Server) readDailyNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("date", "today")
	create := req.GetBool("create", false)

	date, err := s.svc.ParseDate(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.DailyNote(ctx, date, create)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no daily note for %s", date.Format("2006-01-02"))), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note)
}

func (s *Server) getVaultFormat(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(VaultFormatContract), nil
}

func (s *Server) readVaultFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     VaultFormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
