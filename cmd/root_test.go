package cmd

import (
	"testing"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"run", "exec", "serve", "tools", "coords"}
	commands := rootCmd.Commands()

	found := make(map[string]bool)
	for _, c := range commands {
		found[c.Name()] = true
	}

	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestParseScreen(t *testing.T) {
	tests := []struct {
		in    string
		w, h  int
		scale float64
		ok    bool
	}{
		{"1440x900@2", 1440, 900, 2, true},
		{"1280x800", 1280, 800, 1, true},
		{"1280x800@1.5", 1280, 800, 1.5, true},
		{"0x800", 0, 0, 0, false},
		{"wide", 0, 0, 0, false},
		{"1280x800@-1", 0, 0, 0, false},
	}
	for _, tt := range tests {
		w, h, scale, err := parseScreen(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("parseScreen(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && (w != tt.w || h != tt.h || scale != tt.scale) {
			t.Errorf("parseScreen(%q) = %d,%d,%g", tt.in, w, h, scale)
		}
	}
}

func TestParsePoint(t *testing.T) {
	x, y, err := parsePoint(" 12.5, 40 ")
	if err != nil || x != 12.5 || y != 40 {
		t.Errorf("parsePoint = %g,%g,%v", x, y, err)
	}
	for _, bad := range []string{"12", "a,b", "1,2,3"} {
		if _, _, err := parsePoint(bad); err == nil {
			t.Errorf("parsePoint(%q): expected error", bad)
		}
	}
}
