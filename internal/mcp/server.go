package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"charsheet/internal/layout"
	"charsheet/internal/service"
	"charsheet/internal/storage"
)

// Server is the MCP server for the sheet editor.
// It exposes tools, resources and prompts so AI agents can build and edit
// the character sheet.
type Server struct {
	mcp      *server.MCPServer
	store    *service.SheetStore
	engine   *layout.Engine
	approval *ApprovalQueue
	log      *zap.Logger
}

// Deps holds everything the composition root passes to the MCP server.
type Deps struct {
	Store   *service.SheetStore
	Engine  *layout.Engine
	Emitter service.EventEmitter
	Logger  *zap.Logger

	// Approvals, when set, routes destructive-tool approvals through SQLite
	// so the editor window in another process can answer them.
	Approvals   *storage.ApprovalStore
	AutoApprove bool
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	if deps.Emitter == nil {
		deps.Emitter = service.NoopEmitter{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Engine == nil {
		deps.Engine = layout.NewEngine(layout.DefaultCols)
	}
	logger := deps.Logger.Named("mcp")

	approval := NewApprovalQueue(ctx, deps.Emitter, logger)
	if deps.Approvals != nil {
		approval.SetStore(deps.Approvals)
	}
	approval.SetAutoApprove(deps.AutoApprove)

	s := &Server{
		store:    deps.Store,
		engine:   deps.Engine,
		approval: approval,
		log:      logger,
	}

	// Another process (the editor window) may have written the slot since
	// the last call; pick that up before every read or write.
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		s.store.Reload()
	})
	hooks.AddBeforeReadResource(func(ctx context.Context, id any, req *mcp.ReadResourceRequest) {
		s.store.Reload()
	})

	s.mcp = server.NewMCPServer(
		"charsheet-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
		server.WithHooks(hooks),
	)

	s.registerSheetTools()
	s.registerBlockTools()
	s.registerLayoutTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
