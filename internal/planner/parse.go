package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mj1618/desktop-pilot/internal/model"
)

// plannedAction accepts both tool/args and name/arguments spellings.
type plannedAction struct {
	Tool        string                 `json:"tool"`
	Name        string                 `json:"name"`
	Args        map[string]interface{} `json:"args"`
	Arguments   map[string]interface{} `json:"arguments"`
	Description string                 `json:"description"`
}

// ParsePlan extracts the JSON action array from a model reply. Comment
// lines, code fences and prose around the array are ignored. Actions
// without a tool name are kept; the engine reports them as invalid.
func ParsePlan(reply string) (model.Plan, error) {
	text := stripComments(reply)
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty reply")
	}

	var raw []plannedAction
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		array, ok := extractArray(text)
		if !ok {
			return nil, errors.New("no JSON array found in reply")
		}
		if err := json.Unmarshal([]byte(array), &raw); err != nil {
			return nil, fmt.Errorf("parse action array: %w", err)
		}
	}

	plan := make(model.Plan, 0, len(raw))
	for _, r := range raw {
		plan = append(plan, r.toAction())
	}
	return plan, nil
}

func (r plannedAction) toAction() model.Action {
	name := strings.TrimSpace(r.Tool)
	if name == "" {
		name = strings.TrimSpace(r.Name)
	}
	args := r.Args
	if args == nil {
		args = r.Arguments
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	desc := r.Description
	if desc == "" && name != "" {
		desc = "Execute " + name
	}
	return model.Action{Name: name, Arguments: args, Description: desc}
}

// stripComments drops // comment lines and code fence markers.
func stripComments(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// extractArray returns the first balanced [...] span, skipping brackets
// inside JSON strings.
func extractArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	for start != -1 {
		if end, ok := matchBracket(s, start); ok {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.Index(s[start+1:], "[")
		if next == -1 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBracket(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
