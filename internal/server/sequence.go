package server

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// sequenceStep is one entry of an executeToolSequence request.
type sequenceStep struct {
	Tool string
	Args map[string]interface{}
}

// parseSequence reads the actions argument. Every tool name is checked
// before anything runs, so an unknown name has no side effects.
func (s *Server) parseSequence(params map[string]interface{}) ([]sequenceStep, error) {
	raw, ok := params["actions"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("actions must be an array of {tool, args}")
	}
	steps := make([]sequenceStep, 0, len(raw))
	for i, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("action %d: expected an object, got %T", i+1, item)
		}
		step := sequenceStep{Tool: stringParam(entry, "tool", "")}
		if _, known := s.handlers[step.Tool]; !known {
			return nil, fmt.Errorf("unknown tool: %q. Available tools: %s", step.Tool, strings.Join(s.toolNames(), ", "))
		}
		switch args := entry["args"].(type) {
		case nil:
			step.Args = map[string]interface{}{}
		case map[string]interface{}:
			step.Args = args
		default:
			return nil, fmt.Errorf("action %d: args must be an object, got %T", i+1, args)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (s *Server) toolNames() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// handleExecuteToolSequence runs each step through its tool handler in
// order and answers with one line per executed step. The first failing
// step ends the sequence.
func (s *Server) handleExecuteToolSequence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	steps, err := s.parseSequence(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError("Error in sequence: " + err.Error()), nil
	}

	lines := make([]string, 0, len(steps))
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return sequenceError(lines, fmt.Sprintf("step %d (%s): %v", i+1, step.Tool, err)), nil
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = step.Tool
		req.Params.Arguments = step.Args

		res, err := s.handlers[step.Tool](ctx, req)
		if err != nil {
			return sequenceError(lines, fmt.Sprintf("step %d (%s): %v", i+1, step.Tool, err)), nil
		}
		line := stepSummary(step.Tool, res)
		if res.IsError {
			return sequenceError(lines, fmt.Sprintf("step %d (%s): %s", i+1, step.Tool, line)), nil
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, line))
	}
	s.logger.Debug("tool sequence finished", "steps", len(steps))
	return mcp.NewToolResultText(fmt.Sprintf("Executed %d actions:\n%s", len(steps), strings.Join(lines, "\n"))), nil
}

func sequenceError(done []string, msg string) *mcp.CallToolResult {
	text := "Error in sequence: " + msg
	if len(done) > 0 {
		text += "\nCompleted before the failure:\n" + strings.Join(done, "\n")
	}
	return mcp.NewToolResultError(text)
}

// stepSummary reduces a tool result to one line: the message or error of
// an actionResult, the raw text of any other failure, or "Executed <tool>".
func stepSummary(tool string, res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		var text string
		switch v := c.(type) {
		case mcp.TextContent:
			text = v.Text
		case *mcp.TextContent:
			text = v.Text
		default:
			continue
		}
		var ar actionResult
		if err := yaml.Unmarshal([]byte(text), &ar); err == nil {
			if ar.Error != "" {
				return ar.Error
			}
			if ar.Message != "" {
				return ar.Message
			}
		}
		if res.IsError {
			return strings.TrimSpace(text)
		}
	}
	return "Executed " + tool
}
