package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// Provider bundles all platform backends for the current OS. A nil field
// means the capability is not available.
type Provider struct {
	Inputter      Inputter
	WindowManager WindowManager
	Screenshotter Screenshotter
	Display       Display
	AppLauncher   AppLauncher
}

// ErrUnsupported is returned on unsupported platforms.
var ErrUnsupported = fmt.Errorf("desktop-pilot has no input backend for %s/%s; supported: darwin (or use --dry-run)", runtime.GOOS, runtime.GOARCH)

// ErrNotAvailable is returned by a provider for an operation it cannot
// perform on this machine, for example when a helper tool is missing.
var ErrNotAvailable = errors.New("operation not available")

// NewProviderFunc is set by platform-specific packages via init().
// See internal/platform/darwin/init.go for the macOS registration.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
