package platform

import "github.com/mj1618/desktop-pilot/internal/model"

// Inputter simulates mouse and keyboard input. Coordinates are in device
// input space.
type Inputter interface {
	Click(x, y int, button MouseButton, count int) error
	MoveMouse(x, y int) error
	Scroll(x, y int, dx, dy int) error
	Drag(fromX, fromY, toX, toY int) error
	TypeText(text string, delayMs int) error
	KeyCombo(keys []string) error
}

// WindowManager lists and focuses windows.
type WindowManager interface {
	ListWindows() ([]model.Window, error)
	FocusWindow(opts FocusOptions) error
	GetFrontmostApp() (string, int, error)
}

// Screenshotter captures the full screen.
type Screenshotter interface {
	// CaptureScreen returns encoded image bytes in the requested format at
	// native snapshot resolution.
	CaptureScreen(opts ScreenshotOptions) ([]byte, error)
}

// Display reports the main screen size in input space.
type Display interface {
	ScreenSize() (int, int, error)
}

// AppLauncher starts or activates applications.
type AppLauncher interface {
	OpenApplication(name string) error
}
