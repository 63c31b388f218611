//go:build darwin

package darwin

import (
	"fmt"
	"os"
	"strings"

	"github.com/mj1618/desktop-pilot/internal/platform"
)

// Screen implements platform.Screenshotter and platform.Display.
type Screen struct{}

// NewScreen creates a new macOS screen.
func NewScreen() *Screen {
	return &Screen{}
}

// ScreenSize returns the desktop size in points, the space mouse input
// uses.
func (s *Screen) ScreenSize() (int, int, error) {
	out, err := osascript(screenBoundsScript)
	if err != nil {
		return 0, 0, fmt.Errorf("screen size: %w", err)
	}
	return screenSizeFromBounds(out)
}

// CaptureScreen captures the main display at its native pixel resolution,
// which is twice the point size on Retina displays.
func (s *Screen) CaptureScreen(opts platform.ScreenshotOptions) ([]byte, error) {
	format := strings.ToLower(opts.Format)
	switch format {
	case "", "png":
		format = "png"
	case "jpg", "jpeg":
		format = "jpg"
	default:
		return nil, fmt.Errorf("unsupported format %q (use png or jpg)", opts.Format)
	}

	f, err := os.CreateTemp("", "desktop-pilot-*."+format)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if _, err := run("screencapture", "-x", "-t", format, path); err != nil {
		return nil, fmt.Errorf("%w (grant Screen Recording permission to your terminal in System Settings > Privacy & Security)", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("screencapture produced an empty file")
	}
	return data, nil
}
