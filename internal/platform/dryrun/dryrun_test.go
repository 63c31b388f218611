package dryrun

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/mj1618/desktop-pilot/internal/platform"
)

func TestDesktopRecordsInput(t *testing.T) {
	d := New(1280, 800, 2)
	p := d.Provider()

	if err := p.Inputter.Click(50, 60, platform.MouseRight, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.Inputter.TypeText("hello", 0); err != nil {
		t.Fatal(err)
	}
	if err := p.Inputter.KeyCombo([]string{"cmd", "t"}); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"click right x1 at (50,60)",
		`type "hello"`,
		"key cmd+t",
	}
	got := d.Events()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDesktopRejectsOffscreenPoints(t *testing.T) {
	d := New(1280, 800, 1)
	if err := d.Click(1280, 10, platform.MouseLeft, 1); err == nil {
		t.Error("expected error for x == width")
	}
	if err := d.Drag(0, 0, -1, 5); err == nil {
		t.Error("expected error for negative drag target")
	}
	if len(d.Events()) != 0 {
		t.Error("rejected input must not be recorded")
	}
}

func TestDesktopWindows(t *testing.T) {
	d := New(1440, 900, 1)

	if err := d.OpenApplication("TextEdit"); err != nil {
		t.Fatal(err)
	}
	app, _, err := d.GetFrontmostApp()
	if err != nil || app != "TextEdit" {
		t.Fatalf("expected TextEdit frontmost, got %q (%v)", app, err)
	}

	if err := d.FocusWindow(platform.FocusOptions{Window: "desktop"}); err != nil {
		t.Fatal(err)
	}
	app, _, _ = d.GetFrontmostApp()
	if app != "Finder" {
		t.Errorf("expected Finder frontmost, got %q", app)
	}

	err = d.FocusWindow(platform.FocusOptions{Window: "Chrome"})
	if err == nil || !strings.Contains(err.Error(), "Available windows: Desktop, Untitled") {
		t.Errorf("unexpected error %v", err)
	}
	app, _, _ = d.GetFrontmostApp()
	if app != "Finder" {
		t.Errorf("failed focus changed frontmost app to %q", app)
	}

	windows, _ := d.ListWindows()
	if len(windows) != 2 {
		t.Errorf("expected 2 windows, got %d", len(windows))
	}
}

func TestDesktopScreenshotScale(t *testing.T) {
	d := New(160, 100, 2)
	data, err := d.CaptureScreen(platform.ScreenshotOptions{Format: "png"})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 320 || cfg.Height != 200 {
		t.Errorf("expected 320x200 snapshot, got %dx%d", cfg.Width, cfg.Height)
	}
	w, h, _ := d.ScreenSize()
	if w != 160 || h != 100 {
		t.Errorf("expected 160x100 screen, got %dx%d", w, h)
	}

	if _, err := d.CaptureScreen(platform.ScreenshotOptions{Format: "gif"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}
