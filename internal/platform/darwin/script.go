package darwin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/desktop-pilot/internal/model"
)

// macOS virtual key codes from Carbon Events.h.
var keyCodeMap = map[string]int{
	"a": 0x00, "b": 0x0B, "c": 0x08, "d": 0x02, "e": 0x0E, "f": 0x03,
	"g": 0x05, "h": 0x04, "i": 0x22, "j": 0x26, "k": 0x28, "l": 0x25,
	"m": 0x2E, "n": 0x2D, "o": 0x1F, "p": 0x23, "q": 0x0C, "r": 0x0F,
	"s": 0x01, "t": 0x11, "u": 0x20, "v": 0x09, "w": 0x0D, "x": 0x07,
	"y": 0x10, "z": 0x06,
	"0": 0x1D, "1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15,
	"5": 0x17, "6": 0x16, "7": 0x1A, "8": 0x1C, "9": 0x19,
	"return": 0x24, "enter": 0x24, "tab": 0x30, "space": 0x31,
	"delete": 0x33, "backspace": 0x33, "escape": 0x35, "esc": 0x35,
	"up": 0x7E, "down": 0x7D, "left": 0x7B, "right": 0x7C,
	"home": 0x73, "end": 0x77, "pageup": 0x74, "pagedown": 0x79,
	"f1": 0x7A, "f2": 0x78, "f3": 0x63, "f4": 0x76, "f5": 0x60,
	"f6": 0x61, "f7": 0x62, "f8": 0x64, "f9": 0x65, "f10": 0x6D,
	"f11": 0x67, "f12": 0x6F,
}

// AppleScript modifier clauses.
var modifierMap = map[string]string{
	"cmd":     "command down",
	"command": "command down",
	"shift":   "shift down",
	"ctrl":    "control down",
	"control": "control down",
	"alt":     "option down",
	"opt":     "option down",
	"option":  "option down",
}

// quote returns s as an AppleScript string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// keyComboScript builds a System Events key code command for keys such
// as ["cmd", "shift", "t"].
func keyComboScript(keys []string) (string, error) {
	var (
		mods  []string
		code  int
		found bool
	)
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if mod, ok := modifierMap[k]; ok {
			mods = append(mods, mod)
		} else if c, ok := keyCodeMap[k]; ok {
			if found {
				return "", fmt.Errorf("more than one non-modifier key in combo %q", strings.Join(keys, "+"))
			}
			code, found = c, true
		} else {
			return "", fmt.Errorf("unknown key: %q", k)
		}
	}
	if !found {
		return "", fmt.Errorf("no key specified in combo, only modifiers")
	}
	script := fmt.Sprintf("tell application \"System Events\" to key code %d", code)
	if len(mods) > 0 {
		script += " using {" + strings.Join(mods, ", ") + "}"
	}
	return script, nil
}

// typeTextScript builds a keystroke command. A positive delay types one
// character at a time.
func typeTextScript(text string, delayMs int) string {
	if delayMs <= 0 {
		return fmt.Sprintf("tell application \"System Events\" to keystroke %s", quote(text))
	}
	var b strings.Builder
	b.WriteString("tell application \"System Events\"\n")
	for _, ch := range text {
		fmt.Fprintf(&b, "keystroke %s\ndelay %.3f\n", quote(string(ch)), float64(delayMs)/1000)
	}
	b.WriteString("end tell")
	return b.String()
}

const windowListScript = `set out to ""
tell application "System Events"
	set frontName to name of first application process whose frontmost is true
	repeat with p in (every application process whose visible is true)
		set appName to name of p
		set appPID to unix id of p
		repeat with w in (every window of p)
			try
				set {wx, wy} to position of w
				set {ww, wh} to size of w
				set out to out & appName & tab & appPID & tab & (name of w) & tab & wx & "," & wy & "," & ww & "," & wh & tab & (appName is frontName) & linefeed
			end try
		end repeat
	end repeat
end tell
return out`

const frontmostScript = `tell application "System Events"
	set p to first application process whose frontmost is true
	return (name of p) & tab & (unix id of p)
end tell`

const screenBoundsScript = `tell application "Finder" to get bounds of window of desktop`

// parseWindowTable parses the tab-separated output of windowListScript.
// Only the first window of the frontmost app is marked focused.
func parseWindowTable(out string) ([]model.Window, error) {
	var (
		windows []model.Window
		focused bool
	)
	for i, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			return nil, fmt.Errorf("window list line %d: expected 5 fields, got %d", i+1, len(fields))
		}
		pid, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("window list line %d: bad pid %q", i+1, fields[1])
		}
		bounds, err := parseBounds(fields[3])
		if err != nil {
			return nil, fmt.Errorf("window list line %d: %w", i+1, err)
		}
		w := model.Window{
			App:    fields[0],
			PID:    pid,
			Title:  fields[2],
			ID:     len(windows) + 1,
			Bounds: bounds,
		}
		if strings.TrimSpace(fields[4]) == "true" && !focused {
			w.Focused, focused = true, true
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// parseBounds parses four comma-separated integers.
func parseBounds(s string) ([4]int, error) {
	var b [4]int
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return b, fmt.Errorf("invalid bounds %q: expected 4 values", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return b, fmt.Errorf("invalid bounds %q: %w", s, err)
		}
		b[i] = v
	}
	return b, nil
}

// screenSizeFromBounds converts Finder desktop bounds (left, top, right,
// bottom) to a width and height.
func screenSizeFromBounds(s string) (int, int, error) {
	b, err := parseBounds(s)
	if err != nil {
		return 0, 0, err
	}
	w, h := b[2]-b[0], b[3]-b[1]
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid screen bounds %q", s)
	}
	return w, h, nil
}

// clickCommand returns the cliclick command for a button and click count.
func clickCommand(button string, count, x, y int) (string, error) {
	var verb string
	switch {
	case button == "right" && count <= 1:
		verb = "rc"
	case button == "left" && count <= 1:
		verb = "c"
	case button == "left" && count == 2:
		verb = "dc"
	case button == "left" && count == 3:
		verb = "tc"
	default:
		return "", fmt.Errorf("cliclick cannot perform %s click x%d", button, count)
	}
	return fmt.Sprintf("%s:%d,%d", verb, x, y), nil
}
