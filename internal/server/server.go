// Package server is the automation endpoint: an MCP server exposing
// desktop input primitives backed by a platform.Provider.
package server

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"github.com/mj1618/desktop-pilot/internal/version"
)

// Name is the MCP server name advertised to clients.
const Name = "desktop-pilot"

// maxWait caps the wait tool.
const maxWait = 60 * time.Second

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
	// DryRun reports simulated results ("Would type: ...").
	DryRun bool
}

// Server wraps the MCP server with the platform provider and cache.
type Server struct {
	provider   *platform.Provider
	providerMu sync.Mutex
	windows    *WindowCache
	dryRun     bool
	logger     *slog.Logger
	mcp        *mcpserver.MCPServer
	// handlers indexes registered tools for executeToolSequence.
	handlers   map[string]mcpserver.ToolHandlerFunc
}

// New creates an MCP server with every tool registered.
func New(provider *platform.Provider, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		provider: provider,
		windows:  NewWindowCache(cfg.CacheTTL),
		dryRun:   cfg.DryRun,
		logger:   logger,
		handlers: map[string]mcpserver.ToolHandlerFunc{},
	}
	s.mcp = mcpserver.NewMCPServer(Name, version.Version)
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server, for in-process clients.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Serve starts the MCP server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "", "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		s.logger.Info("serving MCP over streamable-http", "port", cfg.Port)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) addTool(tool mcp.Tool, handler mcpserver.ToolHandlerFunc) {
	s.handlers[tool.Name] = handler
	s.mcp.AddTool(tool, handler)
}

func (s *Server) registerTools() {
	point := func(axis string) mcp.ToolOption {
		return mcp.WithNumber(axis, mcp.Description(axis+" coordinate in screen points"), mcp.Required())
	}

	s.addTool(
		mcp.NewTool(model.ToolClickAt,
			mcp.WithDescription("Click at screen coordinates"),
			point("x"), point("y"),
			mcp.WithString("button", mcp.Description("Mouse button: left, right, middle (default: left)")),
		),
		s.handleClickAt,
	)
	s.addTool(
		mcp.NewTool(model.ToolRightClickAt,
			mcp.WithDescription("Right-click at screen coordinates"),
			point("x"), point("y"),
		),
		s.handleRightClickAt,
	)
	s.addTool(
		mcp.NewTool(model.ToolDoubleClickAt,
			mcp.WithDescription("Double-click at screen coordinates"),
			point("x"), point("y"),
		),
		s.handleDoubleClickAt,
	)
	s.addTool(
		mcp.NewTool(model.ToolMoveMouse,
			mcp.WithDescription("Move the mouse pointer to screen coordinates"),
			point("x"), point("y"),
		),
		s.handleMoveMouse,
	)
	s.addTool(
		mcp.NewTool(model.ToolDragMouse,
			mcp.WithDescription("Drag with the left button from one point to another"),
			point("fromX"), point("fromY"), point("toX"), point("toY"),
		),
		s.handleDragMouse,
	)
	s.addTool(
		mcp.NewTool(model.ToolScroll,
			mcp.WithDescription("Scroll at the current pointer position or at x,y"),
			mcp.WithString("direction", mcp.Description("Scroll direction: up, down, left, right"), mcp.Required()),
			mcp.WithNumber("amount", mcp.Description("Scroll lines (default: 3)")),
			mcp.WithNumber("x", mcp.Description("Scroll at X coordinate")),
			mcp.WithNumber("y", mcp.Description("Scroll at Y coordinate")),
		),
		s.handleScroll,
	)
	s.addTool(
		mcp.NewTool(model.ToolTypeText,
			mcp.WithDescription("Type a string of text"),
			mcp.WithString("text", mcp.Description("The text to type"), mcp.Required()),
			mcp.WithNumber("delay", mcp.Description("Delay between keystrokes in ms")),
		),
		s.handleTypeText,
	)
	s.addTool(
		mcp.NewTool(model.ToolPressKey,
			mcp.WithDescription("Press a raw key or key combination"),
			mcp.WithString("key", mcp.Description("Key or combo (e.g. 'enter', 'tab', 'escape', 'cmd+shift+t')"), mcp.Required()),
		),
		s.handlePressKey,
	)
	s.addTool(
		mcp.NewTool(model.ToolExecuteShortcut,
			mcp.WithDescription("Execute a semantic keyboard action"),
			mcp.WithString("action", mcp.Description("Semantic action (e.g. 'open spotlight', 'copy', 'new tab', 'save', 'find')"), mcp.Required()),
		),
		s.handleExecuteShortcut,
	)
	s.addTool(
		mcp.NewTool(model.ToolGetAvailableShortcuts,
			mcp.WithDescription("List the semantic keyboard actions executeShortcut accepts"),
		),
		s.handleGetAvailableShortcuts,
	)
	s.addTool(
		mcp.NewTool(model.ToolOpenApplication,
			mcp.WithDescription("Launch or activate an application by name"),
			mcp.WithString("appName", mcp.Description("Application name (e.g. 'Safari', 'TextEdit')"), mcp.Required()),
		),
		s.handleOpenApplication,
	)
	s.addTool(
		mcp.NewTool(model.ToolFocusWindow,
			mcp.WithDescription("Focus a window by title or partial title match"),
			mcp.WithString("windowTitle", mcp.Description("Window title or partial title (e.g. 'Chrome', 'Untitled')"), mcp.Required()),
		),
		s.handleFocusWindow,
	)
	s.addTool(
		mcp.NewTool(model.ToolGetWindowList,
			mcp.WithDescription("List open windows with their bounds"),
		),
		s.handleGetWindowList,
	)
	s.addTool(
		mcp.NewTool(model.ToolGetScreenSize,
			mcp.WithDescription("Get the screen size in input coordinates"),
		),
		s.handleGetScreenSize,
	)
	s.addTool(
		mcp.NewTool(model.ToolTakeScreenshot,
			mcp.WithDescription("Capture the full screen"),
			mcp.WithString("format", mcp.Description("Image format: png, jpg (default: png)")),
			mcp.WithNumber("quality", mcp.Description("JPEG quality 1-100 (default: 80)")),
			mcp.WithNumber("scale", mcp.Description("Scale factor 0.1-1.0 (default: 1.0, native resolution)")),
		),
		s.handleTakeScreenshot,
	)
	s.addTool(
		mcp.NewTool(model.ToolWait,
			mcp.WithDescription("Wait for a number of milliseconds"),
			mcp.WithNumber("ms", mcp.Description("Milliseconds to wait (default: 1000, max: 60000)")),
		),
		s.handleWait,
	)
	// Registered last so that it never appears in its own index.
	s.mcp.AddTool(
		mcp.NewTool(model.ToolExecuteToolSequence,
			mcp.WithDescription("Execute a sequence of tool actions in order, stopping at the first failure"),
			mcp.WithArray("actions",
				mcp.Description("Actions to execute in sequence, each {tool, args}"),
				mcp.Required(),
				mcp.Items(map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"tool": map[string]interface{}{"type": "string", "description": "The tool name to execute"},
						"args": map[string]interface{}{"type": "object", "description": "Arguments for the tool"},
					},
					"required": []string{"tool"},
				}),
			),
		),
		s.handleExecuteToolSequence,
	)
}
