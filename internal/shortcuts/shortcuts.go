// Package shortcuts maps semantic action names such as "copy" or
// "new tab" to macOS key combinations.
package shortcuts

import (
	"sort"
	"strings"
)

var macOS = map[string][]string{
	"open spotlight":       {"cmd", "space"},
	"open finder":          {"cmd", "space"},
	"new tab":              {"cmd", "t"},
	"close tab":            {"cmd", "w"},
	"close window":         {"cmd", "q"},
	"copy":                 {"cmd", "c"},
	"paste":                {"cmd", "v"},
	"cut":                  {"cmd", "x"},
	"undo":                 {"cmd", "z"},
	"redo":                 {"cmd", "shift", "z"},
	"select all":           {"cmd", "a"},
	"save":                 {"cmd", "s"},
	"find":                 {"cmd", "f"},
	"refresh":              {"cmd", "r"},
	"switch app":           {"cmd", "tab"},
	"minimize":             {"cmd", "m"},
	"hide":                 {"cmd", "h"},
	"screenshot":           {"cmd", "shift", "3"},
	"screenshot selection": {"cmd", "shift", "4"},
	"force quit":           {"cmd", "option", "escape"},
	"show desktop":         {"f11"},
	"mission control":      {"ctrl", "up"},
	"app expose":           {"ctrl", "down"},
	"focus url bar":        {"cmd", "l"},
}

// Lookup returns the key combination for a semantic shortcut name. Names
// are matched case-insensitively after trimming.
func Lookup(name string) ([]string, bool) {
	keys, ok := macOS[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out, true
}

// Names returns every known shortcut name, sorted.
func Names() []string {
	names := make([]string, 0, len(macOS))
	for name := range macOS {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
