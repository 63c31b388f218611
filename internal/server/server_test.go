package server

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/desktop-pilot/internal/backend"
	"github.com/mj1618/desktop-pilot/internal/coords"
	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/mj1618/desktop-pilot/internal/platform/dryrun"
)

func connect(t *testing.T, desktop *dryrun.Desktop, cfg Config) *backend.Client {
	t.Helper()
	s := New(desktop.Provider(), cfg, nil)
	c, err := client.NewInProcessClient(s.MCP())
	if err != nil {
		t.Fatalf("in-process client: %v", err)
	}
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	bc, err := backend.New(ctx, c, nil)
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	t.Cleanup(func() { bc.Close() })
	return bc
}

func TestToolCatalog(t *testing.T) {
	bc := connect(t, dryrun.New(1280, 800, 2), Config{})

	want := []string{
		model.ToolClickAt, model.ToolRightClickAt, model.ToolDoubleClickAt,
		model.ToolMoveMouse, model.ToolDragMouse, model.ToolScroll,
		model.ToolTypeText, model.ToolPressKey, model.ToolExecuteShortcut,
		model.ToolGetAvailableShortcuts, model.ToolOpenApplication,
		model.ToolFocusWindow, model.ToolGetWindowList, model.ToolGetScreenSize,
		model.ToolTakeScreenshot, model.ToolWait, model.ToolExecuteToolSequence,
	}
	if got := len(bc.Tools()); got != len(want) {
		t.Errorf("expected %d tools, got %d", len(want), got)
	}
	for _, name := range want {
		if !bc.HasTool(name) {
			t.Errorf("missing tool %s", name)
		}
	}
}

func TestInputToolsDryRun(t *testing.T) {
	desktop := dryrun.New(1280, 800, 2)
	bc := connect(t, desktop, Config{DryRun: true})
	ctx := context.Background()

	calls := []struct {
		tool string
		args map[string]interface{}
		msg  string
	}{
		{model.ToolClickAt, map[string]interface{}{"x": 50.0, "y": 60.0}, "Would click left x1 at (50, 60)"},
		{model.ToolDoubleClickAt, map[string]interface{}{"x": 1.0, "y": 2.0}, "Would click left x2 at (1, 2)"},
		{model.ToolTypeText, map[string]interface{}{"text": "hello"}, "Would type: hello"},
		{model.ToolPressKey, map[string]interface{}{"key": "cmd+shift+t"}, "Would press key: cmd+shift+t"},
		{model.ToolExecuteShortcut, map[string]interface{}{"action": "Copy"}, "Would execute action: Copy (cmd+c)"},
		{model.ToolDragMouse, map[string]interface{}{"fromX": 1.0, "fromY": 2.0, "toX": 3.0, "toY": 4.0}, "Would drag from (1, 2) to (3, 4)"},
	}
	for _, c := range calls {
		res, err := bc.Invoke(ctx, c.tool, c.args)
		if err != nil {
			t.Fatalf("%s: %v", c.tool, err)
		}
		if !strings.Contains(res.Text, c.msg) {
			t.Errorf("%s: expected message %q in\n%s", c.tool, c.msg, res.Text)
		}
	}

	want := []string{
		"click left x1 at (50,60)",
		"click left x2 at (1,2)",
		`type "hello"`,
		"key cmd+shift+t",
		"key cmd+c",
		"drag (1,2) -> (3,4)",
	}
	events := desktop.Events()
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestTypeTextReportsTyped(t *testing.T) {
	bc := connect(t, dryrun.New(1280, 800, 1), Config{})
	res, err := bc.Invoke(context.Background(), model.ToolTypeText, map[string]interface{}{"text": "hi"})
	if err != nil {
		t.Fatal(err)
	}
	var r actionResult
	if err := yaml.Unmarshal([]byte(res.Text), &r); err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if !r.OK || r.Action != model.ToolTypeText || r.Message != "Typed: hi" {
		t.Errorf("unexpected result %+v", r)
	}
}

func TestToolErrorsAreToolCategory(t *testing.T) {
	bc := connect(t, dryrun.New(1280, 800, 1), Config{})
	ctx := context.Background()

	tests := []struct {
		tool string
		args map[string]interface{}
		want string
	}{
		{model.ToolExecuteShortcut, map[string]interface{}{"action": "launch rocket"}, "unknown semantic shortcut"},
		{model.ToolFocusWindow, map[string]interface{}{"windowTitle": "Chrome"}, "window not found"},
		{model.ToolClickAt, map[string]interface{}{"x": 5000.0, "y": 10.0}, "outside"},
		{model.ToolClickAt, map[string]interface{}{"x": 5.0}, "y is required"},
		{model.ToolPressKey, map[string]interface{}{"key": ""}, "empty key"},
		{model.ToolScroll, map[string]interface{}{"direction": "sideways"}, "unknown scroll direction"},
	}
	for _, tt := range tests {
		_, err := bc.Invoke(ctx, tt.tool, tt.args)
		if err == nil {
			t.Errorf("%s: expected error", tt.tool)
			continue
		}
		if cat, _ := backend.CategoryOf(err); cat != backend.CategoryTool {
			t.Errorf("%s: expected tool category, got %q", tt.tool, cat)
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected %q in %v", tt.tool, tt.want, err)
		}
	}
}

func TestWindowToolsAndCacheInvalidation(t *testing.T) {
	bc := connect(t, dryrun.New(1280, 800, 1), Config{CacheTTL: time.Minute})
	ctx := context.Background()

	list := func() []model.Window {
		t.Helper()
		res, err := bc.Invoke(ctx, model.ToolGetWindowList, nil)
		if err != nil {
			t.Fatal(err)
		}
		var windows []model.Window
		if err := yaml.Unmarshal([]byte(res.Text), &windows); err != nil {
			t.Fatalf("parse windows: %v", err)
		}
		return windows
	}

	if n := len(list()); n != 1 {
		t.Fatalf("expected 1 window, got %d", n)
	}
	if _, err := bc.Invoke(ctx, model.ToolOpenApplication, map[string]interface{}{"appName": "TextEdit"}); err != nil {
		t.Fatal(err)
	}
	windows := list()
	if len(windows) != 2 {
		t.Fatalf("expected cache invalidated after open, got %d windows", len(windows))
	}
	if !windows[1].Focused || windows[1].App != "TextEdit" {
		t.Errorf("expected TextEdit focused, got %+v", windows[1])
	}

	if _, err := bc.Invoke(ctx, model.ToolFocusWindow, map[string]interface{}{"windowTitle": "Desktop"}); err != nil {
		t.Fatal(err)
	}
	if w := list(); !w[0].Focused {
		t.Errorf("expected Finder focused, got %+v", w)
	}
}

func TestScreenSizeAndScreenshot(t *testing.T) {
	bc := connect(t, dryrun.New(160, 100, 2), Config{})
	ctx := context.Background()

	w, h, err := bc.ScreenSize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if w != 160 || h != 100 {
		t.Errorf("expected 160x100, got %dx%d", w, h)
	}

	res, err := bc.Invoke(ctx, model.ToolTakeScreenshot, map[string]interface{}{"scale": 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Images) != 1 || res.Images[0].MIMEType != "image/png" {
		t.Fatalf("unexpected images %+v", res.Images)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(res.Images[0].Data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 160 || cfg.Height != 100 {
		t.Errorf("expected 160x100 after 0.5 scale, got %dx%d", cfg.Width, cfg.Height)
	}

	if _, err := bc.Invoke(ctx, model.ToolTakeScreenshot, map[string]interface{}{"scale": 2.0}); err == nil {
		t.Error("expected error for scale > 1")
	}
}

func TestMapperThroughEndpoint(t *testing.T) {
	bc := connect(t, dryrun.New(1280, 800, 2), Config{})
	m := coords.NewMapper(bc)

	sys, err := m.System(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sys.Fallback || sys.ScaleX != 2 || sys.ScaleY != 2 {
		t.Errorf("expected 2x scale, got %+v", sys)
	}
	p, err := m.Normalize(context.Background(), 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if p.X != 50 || p.Y != 50 {
		t.Errorf("expected (50,50), got %+v", p)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	bc := connect(t, dryrun.New(100, 100, 1), Config{})

	res, err := bc.Invoke(context.Background(), model.ToolWait, map[string]interface{}{"ms": 5.0})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, "Waited 5ms") {
		t.Errorf("unexpected text %q", res.Text)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	begin := time.Now()
	_, _ = bc.Invoke(ctx, model.ToolWait, map[string]interface{}{"ms": 30000.0})
	if d := time.Since(begin); d > 5*time.Second {
		t.Errorf("wait ignored cancellation, took %s", d)
	}
}

func TestGetAvailableShortcuts(t *testing.T) {
	bc := connect(t, dryrun.New(100, 100, 1), Config{})
	res, err := bc.Invoke(context.Background(), model.ToolGetAvailableShortcuts, nil)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	if err := yaml.Unmarshal([]byte(res.Text), &names); err != nil {
		t.Fatal(err)
	}
	if len(names) == 0 || names[0] != "app expose" {
		t.Errorf("unexpected shortcut names %v", names)
	}
}

func sequenceArgs(steps ...map[string]interface{}) map[string]interface{} {
	actions := make([]interface{}, len(steps))
	for i, st := range steps {
		actions[i] = st
	}
	return map[string]interface{}{"actions": actions}
}

func TestExecuteToolSequence(t *testing.T) {
	desktop := dryrun.New(1280, 800, 1)
	bc := connect(t, desktop, Config{DryRun: true})

	res, err := bc.Invoke(context.Background(), model.ToolExecuteToolSequence, sequenceArgs(
		map[string]interface{}{"tool": model.ToolTypeText, "args": map[string]interface{}{"text": "hi"}},
		map[string]interface{}{"tool": model.ToolPressKey, "args": map[string]interface{}{"key": "return"}},
		map[string]interface{}{"tool": model.ToolGetScreenSize},
	))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Executed 3 actions:", "1. Would type: hi", "2. Would press key: return", "3. Executed getScreenSize"} {
		if !strings.Contains(res.Text, want) {
			t.Errorf("expected %q in\n%s", want, res.Text)
		}
	}
	events := desktop.Events()
	if len(events) != 2 || events[0] != `type "hi"` || events[1] != "key return" {
		t.Errorf("unexpected events %v", events)
	}
}

func TestExecuteToolSequenceUnknownToolRunsNothing(t *testing.T) {
	desktop := dryrun.New(1280, 800, 1)
	bc := connect(t, desktop, Config{DryRun: true})

	_, err := bc.Invoke(context.Background(), model.ToolExecuteToolSequence, sequenceArgs(
		map[string]interface{}{"tool": model.ToolTypeText, "args": map[string]interface{}{"text": "hi"}},
		map[string]interface{}{"tool": "launchRocket"},
	))
	if err == nil || !strings.Contains(err.Error(), `unknown tool: "launchRocket"`) {
		t.Fatalf("expected unknown tool error, got %v", err)
	}
	if events := desktop.Events(); len(events) != 0 {
		t.Errorf("no step should run, got %v", events)
	}
}

func TestExecuteToolSequenceStopsAtFailure(t *testing.T) {
	desktop := dryrun.New(1280, 800, 1)
	bc := connect(t, desktop, Config{DryRun: true})

	_, err := bc.Invoke(context.Background(), model.ToolExecuteToolSequence, sequenceArgs(
		map[string]interface{}{"tool": model.ToolTypeText, "args": map[string]interface{}{"text": "a"}},
		map[string]interface{}{"tool": model.ToolClickAt, "args": map[string]interface{}{"x": 10.0}},
		map[string]interface{}{"tool": model.ToolTypeText, "args": map[string]interface{}{"text": "b"}},
	))
	if err == nil {
		t.Fatal("expected the sequence to fail")
	}
	for _, want := range []string{"step 2 (clickAt)", "y is required", "1. Would type: a"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
	events := desktop.Events()
	if len(events) != 1 || events[0] != `type "a"` {
		t.Errorf("steps after the failure ran: %v", events)
	}
}

func TestExecuteToolSequenceIsNotNested(t *testing.T) {
	bc := connect(t, dryrun.New(100, 100, 1), Config{DryRun: true})
	_, err := bc.Invoke(context.Background(), model.ToolExecuteToolSequence, sequenceArgs(
		map[string]interface{}{"tool": model.ToolExecuteToolSequence, "args": sequenceArgs()},
	))
	if err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Fatalf("expected nested sequence to be rejected, got %v", err)
	}
}
