// Package backend is the client side of the automation endpoint: it
// invokes named tools over MCP and reports failures in categories the
// execution engine can act on.
package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/version"
	"gopkg.in/yaml.v3"
)

// healthCheckTimeout bounds the ping used to tell tool failures apart
// from a dead endpoint.
const healthCheckTimeout = 2 * time.Second

// Image is one image returned by a tool.
type Image struct {
	MIMEType string
	Data     []byte
}

// Result is the decoded content of a successful tool call.
type Result struct {
	Text   string
	Images []Image
}

// Invoker executes one named operation with arguments.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]interface{}) (Result, error)
}

// ToolInfo describes a tool advertised by the endpoint.
type ToolInfo struct {
	Name        string `yaml:"name"                  json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Client is an Invoker backed by an MCP session.
type Client struct {
	mcp    *client.Client
	logger *slog.Logger

	mu     sync.RWMutex
	tools  map[string]ToolInfo
	closed atomic.Bool
}

// Config describes how to reach the automation endpoint.
type Config struct {
	// Transport is "stdio" or "streamable-http".
	Transport string
	// Command and Args start the endpoint for the stdio transport.
	Command string
	Args    []string
	Env     []string
	// URL is the endpoint for the streamable-http transport.
	URL string
}

// Dial connects to the endpoint described by cfg, performs the MCP
// handshake and loads the tool catalog.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	var (
		c   *client.Client
		err error
	)
	switch cfg.Transport {
	case "", "stdio":
		if cfg.Command == "" {
			return nil, fmt.Errorf("stdio transport requires a command")
		}
		c, err = client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
		if err != nil {
			return nil, fmt.Errorf("start %s: %w", cfg.Command, err)
		}
	case "streamable-http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("streamable-http transport requires a url")
		}
		c, err = client.NewStreamableHttpClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("create http client: %w", err)
		}
		if err := c.Start(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("connect %s: %w", cfg.URL, err)
		}
	default:
		return nil, fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
	return New(ctx, c, logger)
}

// New wraps an already started MCP client.
func New(ctx context.Context, c *client.Client, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	bc := &Client{mcp: c, logger: logger, tools: map[string]ToolInfo{}}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "desktop-pilot",
		Version: version.Version,
	}
	if _, err := c.Initialize(ctx, req); err != nil {
		c.Close()
		return nil, connectivityError("", fmt.Errorf("initialize: %w", err))
	}
	if err := bc.RefreshTools(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return bc, nil
}

// RefreshTools reloads the tool catalog from the endpoint.
func (c *Client) RefreshTools(ctx context.Context) error {
	if c.closed.Load() {
		return ErrNotConnected
	}
	res, err := c.mcp.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return connectivityError("", fmt.Errorf("list tools: %w", err))
	}
	tools := make(map[string]ToolInfo, len(res.Tools))
	for _, t := range res.Tools {
		tools[t.Name] = ToolInfo{Name: t.Name, Description: t.Description}
	}
	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()
	c.logger.Debug("tool catalog loaded", "count", len(tools))
	return nil
}

// Tools returns the advertised tools sorted by name.
func (c *Client) Tools() []ToolInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ToolInfo, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasTool reports whether the endpoint advertises name. An empty catalog
// accepts every name.
func (c *Client) HasTool(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.tools) == 0 {
		return true
	}
	_, ok := c.tools[name]
	return ok
}

// Invoke calls one tool. Context errors are returned unchanged; every
// other failure is a *Error.
func (c *Client) Invoke(ctx context.Context, name string, args map[string]interface{}) (Result, error) {
	if c.closed.Load() {
		return Result{}, connectivityError(name, ErrNotConnected)
	}
	if !c.HasTool(name) {
		return Result{}, &Error{Tool: name, Category: CategoryUnknownTool,
			Err: fmt.Errorf("unknown tool %q", name)}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.mcp.CallTool(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		if perr := c.Ping(ctx); perr != nil {
			return Result{}, connectivityError(name, fmt.Errorf("%w: %v", perr, err))
		}
		return Result{}, toolError(name, err)
	}

	out := decodeContent(res.Content)
	if res.IsError {
		msg := strings.TrimSpace(out.Text)
		if msg == "" {
			msg = "unknown error"
		}
		return out, toolError(name, errors.New(msg))
	}
	return out, nil
}

// Ping checks that the endpoint still answers.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrNotConnected
	}
	pctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := c.mcp.Ping(pctx); err != nil {
		return fmt.Errorf("%w: %v", ErrHealthCheck, err)
	}
	return nil
}

// ScreenSize returns the device screen dimensions in input space.
func (c *Client) ScreenSize(ctx context.Context) (int, int, error) {
	res, err := c.Invoke(ctx, model.ToolGetScreenSize, map[string]interface{}{})
	if err != nil {
		return 0, 0, err
	}
	var size model.ScreenSize
	if err := yaml.Unmarshal([]byte(res.Text), &size); err != nil {
		return 0, 0, fmt.Errorf("parse screen size %q: %w", res.Text, err)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return 0, 0, fmt.Errorf("endpoint reported invalid screen size %dx%d", size.Width, size.Height)
	}
	return size.Width, size.Height, nil
}

// CaptureSnapshot returns a full-screen screenshot as encoded image bytes.
func (c *Client) CaptureSnapshot(ctx context.Context) ([]byte, error) {
	res, err := c.Invoke(ctx, model.ToolTakeScreenshot, map[string]interface{}{"format": "png"})
	if err != nil {
		return nil, err
	}
	if len(res.Images) == 0 {
		return nil, fmt.Errorf("%s returned no image", model.ToolTakeScreenshot)
	}
	return res.Images[0].Data, nil
}

// Close ends the session. Further calls fail with ErrNotConnected.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.mcp.Close()
}

func decodeContent(contents []mcp.Content) Result {
	var (
		out   Result
		texts []string
	)
	for _, content := range contents {
		switch v := content.(type) {
		case mcp.TextContent:
			texts = append(texts, v.Text)
		case *mcp.TextContent:
			texts = append(texts, v.Text)
		case mcp.ImageContent:
			if img, ok := decodeImage(v.MIMEType, v.Data); ok {
				out.Images = append(out.Images, img)
			}
		case *mcp.ImageContent:
			if img, ok := decodeImage(v.MIMEType, v.Data); ok {
				out.Images = append(out.Images, img)
			}
		}
	}
	out.Text = strings.Join(texts, "\n")
	return out
}

func decodeImage(mimeType, data string) (Image, bool) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Image{}, false
	}
	return Image{MIMEType: mimeType, Data: raw}, true
}
