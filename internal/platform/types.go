package platform

import (
	"fmt"
	"strings"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

func (b MouseButton) String() string {
	switch b {
	case MouseRight:
		return "right"
	case MouseMiddle:
		return "middle"
	default:
		return "left"
	}
}

// ParseMouseButton converts a string argument to MouseButton. An empty
// string is the left button.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "", "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

// ParseKeyCombo splits "cmd+shift+t" into its lowercased keys. A lone "+"
// is the plus key.
func ParseKeyCombo(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty key")
	}
	if s == "+" {
		return []string{"+"}, nil
	}
	parts := strings.Split(s, "+")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			return nil, fmt.Errorf("invalid key combo %q", s)
		}
		keys = append(keys, p)
	}
	return keys, nil
}

// ScrollDelta converts a direction and amount to scroll deltas in lines.
// Positive dy scrolls down, positive dx scrolls right.
func ScrollDelta(direction string, amount int) (dx, dy int, err error) {
	if amount <= 0 {
		amount = 3
	}
	switch strings.ToLower(direction) {
	case "", "down":
		return 0, amount, nil
	case "up":
		return 0, -amount, nil
	case "right":
		return amount, 0, nil
	case "left":
		return -amount, 0, nil
	default:
		return 0, 0, fmt.Errorf("unknown scroll direction: %q (expected up, down, left, or right)", direction)
	}
}

// FocusOptions specifies what to focus. App and Window are matched as
// case-insensitive substrings.
type FocusOptions struct {
	App      string
	Window   string
	WindowID int
	PID      int
}

// ScreenshotOptions configures a capture.
type ScreenshotOptions struct {
	Format  string // "png" or "jpg"
	Quality int    // JPEG quality 1-100 (ignored for PNG)
}
