package model

import "time"

// OutcomeStatus is the result class of one action in a run.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusFailure OutcomeStatus = "failure"
	StatusSkipped OutcomeStatus = "skipped"
)

// ErrorKind classifies a failed action.
type ErrorKind string

const (
	KindInvalidAction ErrorKind = "invalid_action"
	KindTimeout       ErrorKind = "timeout"
	KindBackend       ErrorKind = "backend_error"
	KindConnectivity  ErrorKind = "connectivity_error"
	KindCanceled      ErrorKind = "canceled"
)

// ActionOutcome records what happened to one action of a plan.
type ActionOutcome struct {
	Index     int           `yaml:"index"                json:"index"`
	Action    Action        `yaml:"action"               json:"action"`
	Status    OutcomeStatus `yaml:"status"               json:"status"`
	ErrorKind ErrorKind     `yaml:"error_kind,omitempty" json:"error_kind,omitempty"`
	Error     string        `yaml:"error,omitempty"      json:"error,omitempty"`
	Result    string        `yaml:"result,omitempty"     json:"result,omitempty"`
	Attempts  int           `yaml:"attempts,omitempty"   json:"attempts,omitempty"`
	Duration  time.Duration `yaml:"-"                    json:"-"`
	ElapsedMs int64         `yaml:"elapsed_ms"           json:"elapsed_ms"`
}

// AbortReason explains why a run stopped before the end of its plan.
type AbortReason string

const (
	AbortNone         AbortReason = ""
	AbortRequested    AbortReason = "requested"
	AbortCritical     AbortReason = "critical"
	AbortConnectivity AbortReason = "connectivity"
	AbortCanceled     AbortReason = "canceled"
	AbortFatalError   AbortReason = "fatal_error"
)

// RunSummary is returned by the engine at the end of every run.
type RunSummary struct {
	RunID       string          `yaml:"run_id"                 json:"run_id"`
	Total       int             `yaml:"total"                  json:"total"`
	Succeeded   int             `yaml:"succeeded"              json:"succeeded"`
	Failed      int             `yaml:"failed"                 json:"failed"`
	Skipped     int             `yaml:"skipped"                json:"skipped"`
	Aborted     bool            `yaml:"aborted"                json:"aborted"`
	AbortReason AbortReason     `yaml:"abort_reason,omitempty" json:"abort_reason,omitempty"`
	StartedAt   time.Time       `yaml:"started_at"             json:"started_at"`
	ElapsedMs   int64           `yaml:"elapsed_ms"             json:"elapsed_ms"`
	Outcomes    []ActionOutcome `yaml:"outcomes"               json:"outcomes"`
}

// OK reports whether every action of the run succeeded.
func (s RunSummary) OK() bool {
	return !s.Aborted && s.Failed == 0 && s.Skipped == 0
}

// Status is a point-in-time view of the engine queue.
type Status struct {
	Total     int  `yaml:"total"     json:"total"`
	Current   int  `yaml:"current"   json:"current"`
	Remaining int  `yaml:"remaining" json:"remaining"`
	Completed int  `yaml:"completed" json:"completed"`
	Aborted   bool `yaml:"aborted"   json:"aborted"`
	Running   bool `yaml:"running"   json:"running"`
}
