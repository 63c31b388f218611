//go:build darwin

package darwin

import "github.com/mj1618/desktop-pilot/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		windowManager := NewWindowManager()
		screen := NewScreen()
		return &platform.Provider{
			Inputter:      NewInputter(),
			WindowManager: windowManager,
			Screenshotter: screen,
			Display:       screen,
			AppLauncher:   windowManager,
		}, nil
	}
}
