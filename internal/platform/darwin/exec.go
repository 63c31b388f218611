//go:build darwin

package darwin

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// run executes a command and returns its trimmed stdout. Stderr is folded
// into the error.
func run(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("%s: %s", name, strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func osascript(script string) (string, error) {
	return run("osascript", "-e", script)
}
