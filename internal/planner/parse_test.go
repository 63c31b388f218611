package planner

import (
	"strings"
	"testing"

	"github.com/mj1618/desktop-pilot/internal/backend"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantNames []string
		wantDescs []string
	}{
		{
			name:      "bare array",
			reply:     `[{"tool": "typeText", "args": {"text": "hi"}, "description": "Type hi"}]`,
			wantNames: []string{"typeText"},
			wantDescs: []string{"Type hi"},
		},
		{
			name: "leading comment",
			reply: `// Chrome is open, I need the address bar
[
  {"tool": "executeShortcut", "args": {"action": "focus address bar"}},
  {"tool": "typeText", "args": {"text": "google.com"}, "description": "Type the URL"}
]`,
			wantNames: []string{"executeShortcut", "typeText"},
			wantDescs: []string{"Execute executeShortcut", "Type the URL"},
		},
		{
			name: "prose and fences",
			reply: "Here is the plan [draft]:\n```json\n" +
				`[{"name": "clickAt", "arguments": {"x": 10, "y": 20}}]` +
				"\n```\nLet me know if [anything] changes.",
			wantNames: []string{"clickAt"},
			wantDescs: []string{"Execute clickAt"},
		},
		{
			name:      "brackets inside strings",
			reply:     `[{"tool": "typeText", "args": {"text": "a ] b ["}}]`,
			wantNames: []string{"typeText"},
			wantDescs: []string{"Execute typeText"},
		},
		{
			name:      "missing tool kept",
			reply:     `[{"args": {"ms": 100}}, {"tool": "wait"}]`,
			wantNames: []string{"", "wait"},
			wantDescs: []string{"", "Execute wait"},
		},
		{
			name:      "empty array",
			reply:     "// nothing to do\n[]",
			wantNames: []string{},
			wantDescs: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan(tt.reply)
			if err != nil {
				t.Fatalf("ParsePlan: %v", err)
			}
			if len(plan) != len(tt.wantNames) {
				t.Fatalf("expected %d actions, got %d: %+v", len(tt.wantNames), len(plan), plan)
			}
			for i, a := range plan {
				if a.Name != tt.wantNames[i] {
					t.Errorf("action %d name = %q, want %q", i, a.Name, tt.wantNames[i])
				}
				if a.Description != tt.wantDescs[i] {
					t.Errorf("action %d description = %q, want %q", i, a.Description, tt.wantDescs[i])
				}
				if a.Arguments == nil {
					t.Errorf("action %d has nil arguments", i)
				}
			}
		})
	}
}

func TestParsePlanArguments(t *testing.T) {
	plan, err := ParsePlan(`[{"tool": "clickAt", "args": {"x": 120.5, "y": 40}}]`)
	if err != nil {
		t.Fatal(err)
	}
	if x, ok := plan[0].Arguments["x"].(float64); !ok || x != 120.5 {
		t.Errorf("x = %v", plan[0].Arguments["x"])
	}
	if y, ok := plan[0].Arguments["y"].(float64); !ok || y != 40 {
		t.Errorf("y = %v", plan[0].Arguments["y"])
	}
}

func TestParsePlanErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"empty", "  \n// only a comment\n", "empty reply"},
		{"no array", "I cannot help with that.", "no JSON array"},
		{"unterminated", `[{"tool": "wait"`, "no JSON array"},
		{"wrong shape", `[1, 2, 3]`, "parse action array"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan(tt.reply)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %v", tt.want, err)
			}
		})
	}
}

func TestSystemPromptListsTools(t *testing.T) {
	prompt := SystemPrompt([]backend.ToolInfo{
		{Name: "typeText", Description: "Type a string of text"},
		{Name: "clickAt", Description: "Click at screen coordinates"},
		{Name: "wait"},
	})
	click := strings.Index(prompt, "- clickAt: Click at screen coordinates")
	typ := strings.Index(prompt, "- typeText: Type a string of text")
	if click == -1 || typ == -1 {
		t.Fatalf("tools missing from prompt:\n%s", prompt)
	}
	if click > typ {
		t.Error("expected tools in name order")
	}
	if !strings.Contains(prompt, "- wait\n") {
		t.Error("expected tool without description listed by name")
	}
	if !strings.Contains(prompt, `"tool"`) || !strings.Contains(prompt, `"args"`) {
		t.Error("expected reply format in prompt")
	}
}
