package mcp

import (
	"context"
	"log/slog"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName     = "tilewm"
	defaultTimeout = 10 * time.Second
)

// Server exposes the window manager's IPC API as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	addr      string
	logger    *slog.Logger
	timeout   time.Duration
}

// NewServer creates an MCP server that talks to the daemon at addr.
func NewServer(addr, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:    addr,
		logger:  logger,
		timeout: defaultTimeout,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List monitors with their workspaces and windows as a container tree.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_workspaces",
		Description: "List active workspaces across all monitors.",
	}, s.handleListWorkspaces)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List all managed windows with their state (tiling, floating, minimized, fullscreen).",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_focused",
		Description: "Return the focused container. This is a window, or a workspace when the workspace is empty.",
	}, s.handleGetFocused)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_tiling_direction",
		Description: "Return the tiling direction that a new window next to the focused container would use.",
	}, s.handleGetTilingDirection)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "run_command",
		Description: "Run a window manager command such as toggle-floating, resize -0.1, focus-workspace 2 or wm-toggle-pause. Targets the focused container unless subject_id is given.",
	}, s.handleRunCommand)
}
