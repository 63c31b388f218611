//go:build darwin

package darwin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/platform"
)

// WindowManager implements platform.WindowManager and platform.AppLauncher.
type WindowManager struct{}

// NewWindowManager creates a new macOS window manager.
func NewWindowManager() *WindowManager {
	return &WindowManager{}
}

func (wm *WindowManager) ListWindows() ([]model.Window, error) {
	out, err := osascript(windowListScript)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	return parseWindowTable(out)
}

func (wm *WindowManager) FocusWindow(opts platform.FocusOptions) error {
	windows, err := wm.ListWindows()
	if err != nil {
		return err
	}

	var (
		target model.Window
		found  bool
	)
	switch {
	case opts.WindowID != 0:
		for _, w := range windows {
			if w.ID == opts.WindowID {
				target, found = w, true
				break
			}
		}
	case opts.PID != 0:
		for _, w := range windows {
			if w.PID == opts.PID {
				target, found = w, true
				break
			}
		}
	default:
		name := opts.Window
		if name == "" {
			name = opts.App
		}
		target, found = model.FindWindow(windows, name)
	}
	if !found {
		titles := make([]string, 0, len(windows))
		for _, w := range windows {
			if w.Title != "" {
				titles = append(titles, w.Title)
			}
		}
		return fmt.Errorf("window not found: %q. Available windows: %s",
			opts.Window+opts.App, strings.Join(titles, ", "))
	}

	script := fmt.Sprintf(`tell application "System Events"
	tell process %s
		set frontmost to true
		perform action "AXRaise" of (first window whose name is %s)
	end tell
end tell`, quote(target.App), quote(target.Title))
	if _, err := osascript(script); err != nil {
		return fmt.Errorf("focus %s: %w", target.Title, err)
	}
	return nil
}

func (wm *WindowManager) GetFrontmostApp() (string, int, error) {
	out, err := osascript(frontmostScript)
	if err != nil {
		return "", 0, fmt.Errorf("frontmost app: %w", err)
	}
	name, pidStr, ok := strings.Cut(out, "\t")
	if !ok {
		return "", 0, fmt.Errorf("frontmost app: unexpected output %q", out)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(pidStr))
	if err != nil {
		return "", 0, fmt.Errorf("frontmost app: bad pid %q", pidStr)
	}
	return name, pid, nil
}

func (wm *WindowManager) OpenApplication(name string) error {
	if _, err := run("open", "-a", name); err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	return nil
}
