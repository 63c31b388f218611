package model

import "strings"

// Window describes one top-level window reported by getWindowList.
type Window struct {
	App     string `yaml:"app"               json:"app"`
	PID     int    `yaml:"pid,omitempty"     json:"pid,omitempty"`
	Title   string `yaml:"title"             json:"title"`
	ID      int    `yaml:"id,omitempty"      json:"id,omitempty"`
	Bounds  [4]int `yaml:"bounds,flow"       json:"bounds"`
	Focused bool   `yaml:"focused,omitempty" json:"focused,omitempty"`
}

// FindWindow returns the first window whose app or title contains name,
// ignoring case. Focused windows win ties.
func FindWindow(windows []Window, name string) (Window, bool) {
	var (
		match Window
		found bool
	)
	for _, w := range windows {
		if !containsFold(w.App, name) && !containsFold(w.Title, name) {
			continue
		}
		if !found || (w.Focused && !match.Focused) {
			match, found = w, true
		}
	}
	return match, found
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
