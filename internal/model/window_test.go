package model

import "testing"

func TestFindWindow(t *testing.T) {
	windows := []Window{
		{App: "Finder", Title: "Downloads"},
		{App: "Safari", Title: "Apple"},
		{App: "Safari", Title: "GitHub", Focused: true},
	}

	w, ok := FindWindow(windows, "safari")
	if !ok {
		t.Fatal("expected a match")
	}
	if w.Title != "GitHub" {
		t.Errorf("expected focused Safari window, got %q", w.Title)
	}

	w, ok = FindWindow(windows, "download")
	if !ok || w.App != "Finder" {
		t.Errorf("expected title match on Finder, got %+v ok=%v", w, ok)
	}

	if _, ok := FindWindow(windows, "Terminal"); ok {
		t.Error("expected no match")
	}
}
