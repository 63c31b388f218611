package engine

import "github.com/mj1618/desktop-pilot/internal/model"

// DefaultCriticalActions are actions whose failure invalidates the rest of
// a plan: every later step assumes the target application is running and
// has input focus.
var DefaultCriticalActions = []string{
	model.ToolOpenApplication,
	model.ToolFocusWindow,
}

// DefaultFatalKinds are error kinds that abort a run whatever the action.
// Connectivity errors abort whether or not they are listed.
var DefaultFatalKinds = []model.ErrorKind{
	model.KindConnectivity,
}

// Policy decides which failures abort a run.
type Policy struct {
	Critical   map[string]bool
	FatalKinds map[model.ErrorKind]bool
}

// NewPolicy builds a Policy from lists of critical action names and fatal
// error kinds.
func NewPolicy(critical []string, fatal []model.ErrorKind) Policy {
	p := Policy{
		Critical:   make(map[string]bool, len(critical)),
		FatalKinds: make(map[model.ErrorKind]bool, len(fatal)),
	}
	for _, name := range critical {
		p.Critical[name] = true
	}
	for _, k := range fatal {
		p.FatalKinds[k] = true
	}
	return p
}

// DefaultPolicy returns the policy built from DefaultCriticalActions and
// DefaultFatalKinds.
func DefaultPolicy() Policy {
	return NewPolicy(DefaultCriticalActions, DefaultFatalKinds)
}

// IsCritical reports whether name is in the critical set.
func (p Policy) IsCritical(name string) bool {
	return p.Critical[name]
}

// Decide returns whether a failure of kind on action name aborts the run,
// and why. Malformed actions never abort; cancellation and lost
// connectivity always do.
func (p Policy) Decide(name string, kind model.ErrorKind) (bool, model.AbortReason) {
	switch {
	case kind == model.KindInvalidAction:
		return false, model.AbortNone
	case kind == model.KindCanceled:
		return true, model.AbortCanceled
	case p.Critical[name]:
		return true, model.AbortCritical
	case kind == model.KindConnectivity:
		return true, model.AbortConnectivity
	case p.FatalKinds[kind]:
		return true, model.AbortFatalError
	}
	return false, model.AbortNone
}
