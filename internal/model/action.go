package model

import "fmt"

// Action is one named backend operation plus its arguments.
type Action struct {
	Name        string                 `yaml:"name"                  json:"name"`
	Arguments   map[string]interface{} `yaml:"args,omitempty"        json:"args,omitempty"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
}

// Plan is an ordered list of actions produced for one user intent.
type Plan []Action

// Label returns the description, falling back to the action name.
func (a Action) Label() string {
	if a.Description != "" {
		return a.Description
	}
	if a.Name == "" {
		return "(unnamed action)"
	}
	return fmt.Sprintf("Execute %s", a.Name)
}

// Clone returns a deep copy of the action. Nested maps and slices inside
// the arguments are copied as well so the clone shares no mutable state.
func (a Action) Clone() Action {
	out := Action{Name: a.Name, Description: a.Description}
	if a.Arguments != nil {
		out.Arguments = cloneMap(a.Arguments)
	}
	return out
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	if p == nil {
		return nil
	}
	out := make(Plan, len(p))
	for i, a := range p {
		out[i] = a.Clone()
	}
	return out
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
