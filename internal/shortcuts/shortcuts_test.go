package shortcuts

import (
	"sort"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"copy", "cmd+c"},
		{"  New Tab ", "cmd+t"},
		{"REDO", "cmd+shift+z"},
		{"force quit", "cmd+option+escape"},
	}
	for _, tt := range tests {
		keys, ok := Lookup(tt.name)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.name)
			continue
		}
		if got := strings.Join(keys, "+"); got != tt.want {
			t.Errorf("Lookup(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("launch rocket"); ok {
		t.Error("expected unknown shortcut")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	keys, _ := Lookup("copy")
	keys[0] = "ctrl"
	again, _ := Lookup("copy")
	if again[0] != "cmd" {
		t.Error("Lookup exposed the shared table")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) != len(macOS) {
		t.Fatalf("expected %d names, got %d", len(macOS), len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Error("names not sorted")
	}
}
