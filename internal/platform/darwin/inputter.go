//go:build darwin

package darwin

import (
	"fmt"
	"os/exec"

	"github.com/mj1618/desktop-pilot/internal/platform"
)

// Inputter implements platform.Inputter. Keyboard input goes through
// System Events; mouse input needs cliclick on the PATH.
type Inputter struct {
	cliclick string
}

// NewInputter creates a new macOS inputter.
func NewInputter() *Inputter {
	path, _ := exec.LookPath("cliclick")
	return &Inputter{cliclick: path}
}

func (inp *Inputter) mouse(cmds ...string) error {
	if inp.cliclick == "" {
		return fmt.Errorf("mouse input requires cliclick (brew install cliclick): %w", platform.ErrNotAvailable)
	}
	_, err := run(inp.cliclick, cmds...)
	return err
}

func (inp *Inputter) Click(x, y int, button platform.MouseButton, count int) error {
	if count < 1 {
		count = 1
	}
	cmd, err := clickCommand(button.String(), count, x, y)
	if err != nil {
		return fmt.Errorf("%v: %w", err, platform.ErrNotAvailable)
	}
	if err := inp.mouse(cmd); err != nil {
		return fmt.Errorf("failed to click at (%d, %d): %w", x, y, err)
	}
	return nil
}

func (inp *Inputter) MoveMouse(x, y int) error {
	if err := inp.mouse(fmt.Sprintf("m:%d,%d", x, y)); err != nil {
		return fmt.Errorf("failed to move mouse to (%d, %d): %w", x, y, err)
	}
	return nil
}

func (inp *Inputter) Scroll(x, y int, dx, dy int) error {
	return fmt.Errorf("scroll at (%d, %d): %w", x, y, platform.ErrNotAvailable)
}

func (inp *Inputter) Drag(fromX, fromY, toX, toY int) error {
	err := inp.mouse(
		fmt.Sprintf("dd:%d,%d", fromX, fromY),
		fmt.Sprintf("dm:%d,%d", toX, toY),
		fmt.Sprintf("du:%d,%d", toX, toY),
	)
	if err != nil {
		return fmt.Errorf("failed to drag from (%d,%d) to (%d,%d): %w", fromX, fromY, toX, toY, err)
	}
	return nil
}

func (inp *Inputter) TypeText(text string, delayMs int) error {
	if _, err := osascript(typeTextScript(text, delayMs)); err != nil {
		return fmt.Errorf("failed to type text: %w", err)
	}
	return nil
}

func (inp *Inputter) KeyCombo(keys []string) error {
	script, err := keyComboScript(keys)
	if err != nil {
		return err
	}
	if _, err := osascript(script); err != nil {
		return fmt.Errorf("failed to press keys: %w", err)
	}
	return nil
}
