package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nfnt/resize"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/platform"
	"github.com/mj1618/desktop-pilot/internal/shortcuts"
)

// actionResult is the YAML body of every input tool response.
type actionResult struct {
	OK      bool   `yaml:"ok"`
	Action  string `yaml:"action"`
	Message string `yaml:"message,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

func resultToText(result actionResult) string {
	b, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Sprintf("ok: %v\naction: %s\nerror: %s", result.OK, result.Action, result.Error)
	}
	return string(b)
}

func yamlResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// message picks the dry-run wording when the server only simulates input.
func (s *Server) message(done, would string, args ...interface{}) string {
	if s.dryRun {
		return fmt.Sprintf(would, args...)
	}
	return fmt.Sprintf(done, args...)
}

// writeActionHandler locks the provider, runs fn and invalidates the
// window cache. fn returns the success message.
func (s *Server) writeActionHandler(action string, fn func(*platform.Provider) (string, error)) (*mcp.CallToolResult, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	msg, err := fn(s.provider)
	s.windows.Invalidate()
	if err != nil {
		s.logger.Warn("tool failed", "tool", action, "error", err)
		return mcp.NewToolResultError(resultToText(actionResult{Action: action, Error: err.Error()})), nil
	}
	s.logger.Debug("tool succeeded", "tool", action, "message", msg)
	return mcp.NewToolResultText(resultToText(actionResult{OK: true, Action: action, Message: msg})), nil
}

func requireInputter(p *platform.Provider) error {
	if p.Inputter == nil {
		return fmt.Errorf("input not available on this platform")
	}
	return nil
}

func (s *Server) click(request mcp.CallToolRequest, action string, button platform.MouseButton, count int) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(action, func(p *platform.Provider) (string, error) {
		if err := requireInputter(p); err != nil {
			return "", err
		}
		x, y, err := pointParam(params, "x", "y")
		if err != nil {
			return "", err
		}
		if err := p.Inputter.Click(x, y, button, count); err != nil {
			return "", err
		}
		return s.message("Clicked %s x%d at (%d, %d)", "Would click %s x%d at (%d, %d)", button, count, x, y), nil
	})
}

func (s *Server) handleClickAt(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	button, err := platform.ParseMouseButton(stringParam(request.GetArguments(), "button", "left"))
	if err != nil {
		return mcp.NewToolResultError(resultToText(actionResult{Action: model.ToolClickAt, Error: err.Error()})), nil
	}
	return s.click(request, model.ToolClickAt, button, 1)
}

func (s *Server) handleRightClickAt(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.click(request, model.ToolRightClickAt, platform.MouseRight, 1)
}

func (s *Server) handleDoubleClickAt(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.click(request, model.ToolDoubleClickAt, platform.MouseLeft, 2)
}

func (s *Server) handleMoveMouse(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(model.ToolMoveMouse, func(p *platform.Provider) (string, error) {
		if err := requireInputter(p); err != nil {
			return "", err
		}
		x, y, err := pointParam(params, "x", "y")
		if err != nil {
			return "", err
		}
		if err := p.Inputter.MoveMouse(x, y); err != nil {
			return "", err
		}
		return s.message("Moved mouse to (%d, %d)", "Would move mouse to (%d, %d)", x, y), nil
	})
}

func (s *Server) handleDragMouse(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(model.ToolDragMouse, func(p *platform.Provider) (string, error) {
		if err := requireInputter(p); err != nil {
			return "", err
		}
		fromX, fromY, err := pointParam(params, "fromX", "fromY")
		if err != nil {
			return "", err
		}
		toX, toY, err := pointParam(params, "toX", "toY")
		if err != nil {
			return "", err
		}
		if err := p.Inputter.Drag(fromX, fromY, toX, toY); err != nil {
			return "", err
		}
		return s.message("Dragged from (%d, %d) to (%d, %d)", "Would drag from (%d, %d) to (%d, %d)",
			fromX, fromY, toX, toY), nil
	})
}

func (s *Server) handleScroll(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(model.ToolScroll, func(p *platform.Provider) (string, error) {
		if err := requireInputter(p); err != nil {
			return "", err
		}
		direction := stringParam(params, "direction", "down")
		dx, dy, err := platform.ScrollDelta(direction, intParam(params, "amount", 3))
		if err != nil {
			return "", err
		}
		x, y := intParam(params, "x", 0), intParam(params, "y", 0)
		if err := p.Inputter.Scroll(x, y, dx, dy); err != nil {
			return "", err
		}
		return s.message("Scrolled %s", "Would scroll %s", direction), nil
	})
}

func (s *Server) handleTypeText(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(model.ToolTypeText, func(p *platform.Provider) (string, error) {
		if err := requireInputter(p); err != nil {
			return "", err
		}
		text, ok := params["text"].(string)
		if !ok {
			return "", fmt.Errorf("text is required")
		}
		if err := p.Inputter.TypeText(text, intParam(params, "delay", 0)); err != nil {
			return "", err
		}
		return s.message("Typed: %s", "Would type: %s", text), nil
	})
}

func (s *Server) handlePressKey(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(model.ToolPressKey, func(p *platform.Provider) (string, error) {
		if err := requireInputter(p); err != nil {
			return "", err
		}
		key := stringParam(params, "key", "")
		keys, err := platform.ParseKeyCombo(key)
		if err != nil {
			return "", err
		}
		if err := p.Inputter.KeyCombo(keys); err != nil {
			return "", err
		}
		return s.message("Pressed key: %s", "Would press key: %s", key), nil
	})
}

func (s *Server) handleExecuteShortcut(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(model.ToolExecuteShortcut, func(p *platform.Provider) (string, error) {
		if err := requireInputter(p); err != nil {
			return "", err
		}
		action := stringParam(params, "action", "")
		keys, ok := shortcuts.Lookup(action)
		if !ok {
			return "", fmt.Errorf("unknown semantic shortcut: %q. Available actions: %s",
				action, strings.Join(shortcuts.Names(), ", "))
		}
		if err := p.Inputter.KeyCombo(keys); err != nil {
			return "", err
		}
		return s.message("Executed action: %s (%s)", "Would execute action: %s (%s)",
			action, strings.Join(keys, "+")), nil
	})
}

func (s *Server) handleGetAvailableShortcuts(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return yamlResult(shortcuts.Names())
}

func (s *Server) handleOpenApplication(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(model.ToolOpenApplication, func(p *platform.Provider) (string, error) {
		if p.AppLauncher == nil {
			return "", fmt.Errorf("launching applications is not available on this platform")
		}
		name := strings.TrimSpace(stringParam(params, "appName", ""))
		if name == "" {
			return "", fmt.Errorf("appName is required")
		}
		if err := p.AppLauncher.OpenApplication(name); err != nil {
			return "", err
		}
		return s.message("Launched application: %s", "Would launch application: %s", name), nil
	})
}

func (s *Server) handleFocusWindow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	return s.writeActionHandler(model.ToolFocusWindow, func(p *platform.Provider) (string, error) {
		if p.WindowManager == nil {
			return "", fmt.Errorf("window management is not available on this platform")
		}
		title := strings.TrimSpace(stringParam(params, "windowTitle", ""))
		if title == "" {
			return "", fmt.Errorf("windowTitle is required")
		}
		if err := p.WindowManager.FocusWindow(platform.FocusOptions{Window: title}); err != nil {
			return "", err
		}
		return s.message("Focused window: %q", "Would focus window: %q", title), nil
	})
}

func (s *Server) handleGetWindowList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	if s.provider.WindowManager == nil {
		return mcp.NewToolResultError("window management is not available on this platform"), nil
	}
	windows, err := s.windows.ListWindows(s.provider.WindowManager)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if windows == nil {
		windows = []model.Window{}
	}
	return yamlResult(windows)
}

func (s *Server) handleGetScreenSize(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	if s.provider.Display == nil {
		return mcp.NewToolResultError("screen size is not available on this platform"), nil
	}
	w, h, err := s.provider.Display.ScreenSize()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return yamlResult(model.ScreenSize{Width: w, Height: h})
}

func (s *Server) handleTakeScreenshot(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	format := strings.ToLower(stringParam(params, "format", "png"))
	quality := intParam(params, "quality", 80)
	scale := floatParam(params, "scale", 1.0)
	if scale <= 0 || scale > 1 {
		return mcp.NewToolResultError(fmt.Sprintf("scale must be in (0, 1], got %g", scale)), nil
	}

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	if s.provider.Screenshotter == nil {
		return mcp.NewToolResultError("screenshot not supported on this platform"), nil
	}
	data, err := s.provider.Screenshotter.CaptureScreen(platform.ScreenshotOptions{
		Format:  format,
		Quality: quality,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if scale < 1 {
		if data, err = downscale(data, format, quality, scale); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	mimeType := "image/png"
	if format == "jpg" || format == "jpeg" {
		mimeType = "image/jpeg"
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(data),
				MIMEType: mimeType,
			},
		},
	}, nil
}

// downscale resizes an encoded snapshot by scale, keeping its format.
func downscale(data []byte, format string, quality int, scale float64) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	width := uint(float64(img.Bounds().Dx()) * scale)
	if width == 0 {
		width = 1
	}
	scaled := resize.Resize(width, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "jpg", "jpeg":
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: quality})
	default:
		err = png.Encode(&buf, scaled)
	}
	if err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Server) handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ms := intParam(request.GetArguments(), "ms", 1000)
	d := time.Duration(ms) * time.Millisecond
	if d < 0 {
		d = 0
	}
	if d > maxWait {
		d = maxWait
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		return mcp.NewToolResultError(resultToText(actionResult{Action: model.ToolWait, Error: ctx.Err().Error()})), nil
	}
	return mcp.NewToolResultText(resultToText(actionResult{
		OK:      true,
		Action:  model.ToolWait,
		Message: fmt.Sprintf("Waited %dms", d.Milliseconds()),
	})), nil
}
