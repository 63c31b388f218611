package cmd

import (
	"strings"
	"testing"
)

func TestParsePlanDocument(t *testing.T) {
	doc := `
- name: openApplication
  args: { appName: TextEdit }
  description: Open TextEdit
- tool: clickAt
  arguments: { x: 100, y: 200 }
- wait: { ms: 500 }
- getScreenSize:
- typeText: { text: "hello" }
`
	plan, err := parsePlanDocument([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"openApplication", "clickAt", "wait", "getScreenSize", "typeText"}
	if len(plan) != len(want) {
		t.Fatalf("expected %d actions, got %d", len(want), len(plan))
	}
	for i, name := range want {
		if plan[i].Name != name {
			t.Errorf("action %d = %q, want %q", i, plan[i].Name, name)
		}
	}
	if plan[0].Description != "Open TextEdit" || plan[0].Arguments["appName"] != "TextEdit" {
		t.Errorf("unexpected first action %+v", plan[0])
	}
	if plan[1].Arguments["x"] != 100 {
		t.Errorf("expected x=100, got %v (%T)", plan[1].Arguments["x"], plan[1].Arguments["x"])
	}
	if plan[3].Arguments != nil {
		t.Errorf("expected no args for bare step, got %v", plan[3].Arguments)
	}
}

func TestParsePlanDocumentJSON(t *testing.T) {
	plan, err := parsePlanDocument([]byte(`[{"name": "pressKey", "args": {"key": "cmd+s"}}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 1 || plan[0].Arguments["key"] != "cmd+s" {
		t.Errorf("unexpected plan %+v", plan)
	}
}

func TestParsePlanDocumentKeepsUnnamedSteps(t *testing.T) {
	// A missing name is reported by the engine as an invalid action.
	plan, err := parsePlanDocument([]byte(`- name: ""` + "\n  args: { x: 1 }\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 1 || plan[0].Name != "" {
		t.Errorf("unexpected plan %+v", plan)
	}
}

func TestParsePlanDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not a list", "name: clickAt", "failed to parse plan"},
		{"two tool keys", "- clickAt: {x: 1}\n  typeText: {text: a}", "step 1"},
		{"scalar args", "- wait: 500", "arguments must be a map"},
		{"bad args field", "- name: wait\n  args: [1, 2]", "args must be a map"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePlanDocument([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %v", tt.want, err)
			}
		})
	}
}
