// Package dryrun provides a simulated desktop that records input instead
// of performing it. It backs the endpoint's --dry-run mode and tests.
package dryrun

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"

	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/platform"
)

// Desktop is a simulated screen with windows. Screenshots are rendered at
// Scale snapshot pixels per input point, like a Retina display.
type Desktop struct {
	mu      sync.Mutex
	width   int
	height  int
	scale   float64
	windows []model.Window
	events  []string
	nextID  int
}

// New returns a desktop of width x height input points with a Finder
// window open.
func New(width, height int, scale float64) *Desktop {
	if scale <= 0 {
		scale = 1
	}
	d := &Desktop{width: width, height: height, scale: scale, nextID: 1}
	d.addWindow("Finder", "Desktop")
	return d
}

// Provider exposes the desktop through every platform interface.
func (d *Desktop) Provider() *platform.Provider {
	return &platform.Provider{
		Inputter:      d,
		WindowManager: d,
		Screenshotter: d,
		Display:       d,
		AppLauncher:   d,
	}
}

// Events returns the recorded operations in order.
func (d *Desktop) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.events))
	copy(out, d.events)
	return out
}

func (d *Desktop) record(format string, args ...interface{}) {
	d.mu.Lock()
	d.events = append(d.events, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

// addWindow must not be called with d.mu held.
func (d *Desktop) addWindow(app, title string) model.Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.windows {
		d.windows[i].Focused = false
	}
	w := model.Window{
		App:     app,
		PID:     1000 + d.nextID,
		Title:   title,
		ID:      d.nextID,
		Bounds:  [4]int{0, 25, d.width, d.height - 25},
		Focused: true,
	}
	d.nextID++
	d.windows = append(d.windows, w)
	return w
}

func (d *Desktop) inBounds(x, y int) error {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return fmt.Errorf("point (%d, %d) is outside the %dx%d screen", x, y, d.width, d.height)
	}
	return nil
}

func (d *Desktop) Click(x, y int, button platform.MouseButton, count int) error {
	if err := d.inBounds(x, y); err != nil {
		return err
	}
	if count < 1 {
		count = 1
	}
	d.record("click %s x%d at (%d,%d)", button, count, x, y)
	return nil
}

func (d *Desktop) MoveMouse(x, y int) error {
	if err := d.inBounds(x, y); err != nil {
		return err
	}
	d.record("move to (%d,%d)", x, y)
	return nil
}

func (d *Desktop) Scroll(x, y int, dx, dy int) error {
	d.record("scroll (%d,%d) at (%d,%d)", dx, dy, x, y)
	return nil
}

func (d *Desktop) Drag(fromX, fromY, toX, toY int) error {
	if err := d.inBounds(fromX, fromY); err != nil {
		return err
	}
	if err := d.inBounds(toX, toY); err != nil {
		return err
	}
	d.record("drag (%d,%d) -> (%d,%d)", fromX, fromY, toX, toY)
	return nil
}

func (d *Desktop) TypeText(text string, _ int) error {
	d.record("type %q", text)
	return nil
}

func (d *Desktop) KeyCombo(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("no key specified")
	}
	d.record("key %s", strings.Join(keys, "+"))
	return nil
}

func (d *Desktop) ListWindows() ([]model.Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Window, len(d.windows))
	copy(out, d.windows)
	return out, nil
}

func (d *Desktop) FocusWindow(opts platform.FocusOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := 0
	switch {
	case opts.WindowID != 0:
		id = opts.WindowID
	case opts.PID != 0:
		for _, w := range d.windows {
			if w.PID == opts.PID {
				id = w.ID
				break
			}
		}
	default:
		if w, ok := model.FindWindow(d.windows, firstNonEmpty(opts.Window, opts.App)); ok {
			id = w.ID
		}
	}

	found := false
	for _, w := range d.windows {
		if id != 0 && w.ID == id {
			found = true
		}
	}
	if !found {
		titles := make([]string, 0, len(d.windows))
		for _, w := range d.windows {
			titles = append(titles, w.Title)
		}
		return fmt.Errorf("window not found: %q. Available windows: %s",
			firstNonEmpty(opts.Window, opts.App), strings.Join(titles, ", "))
	}
	for i := range d.windows {
		d.windows[i].Focused = d.windows[i].ID == id
		if d.windows[i].Focused {
			d.events = append(d.events, fmt.Sprintf("focus %s - %s", d.windows[i].App, d.windows[i].Title))
		}
	}
	return nil
}

func (d *Desktop) GetFrontmostApp() (string, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range d.windows {
		if w.Focused {
			return w.App, w.PID, nil
		}
	}
	return "", 0, fmt.Errorf("no frontmost application")
}

func (d *Desktop) OpenApplication(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("application name is required")
	}
	d.addWindow(name, "Untitled")
	d.record("open %s", name)
	return nil
}

func (d *Desktop) ScreenSize() (int, int, error) {
	return d.width, d.height, nil
}

// CaptureScreen renders a blank frame of the simulated screen at snapshot
// resolution.
func (d *Desktop) CaptureScreen(opts platform.ScreenshotOptions) ([]byte, error) {
	w := int(float64(d.width) * d.scale)
	h := int(float64(d.height) * d.scale)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := color.RGBA{R: 0x30, G: 0x34, B: 0x3c, A: 0xff}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	switch strings.ToLower(opts.Format) {
	case "", "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "jpg", "jpeg":
		q := opts.Quality
		if q <= 0 || q > 100 {
			q = 80
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q (use png or jpg)", opts.Format)
	}
	d.record("screenshot %dx%d", w, h)
	return buf.Bytes(), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
