package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/desktop-pilot/internal/model"
)

// Reporter accumulates the outcomes of one run in plan order.
type Reporter struct {
	runID     string
	startedAt time.Time
	total     int
	onOutcome func(model.ActionOutcome)

	mu       sync.Mutex
	outcomes []model.ActionOutcome
}

// NewReporter starts recording a run of total actions. onOutcome, if set,
// is called after each outcome is recorded.
func NewReporter(total int, onOutcome func(model.ActionOutcome)) *Reporter {
	return &Reporter{
		runID:     uuid.NewString(),
		startedAt: time.Now(),
		total:     total,
		onOutcome: onOutcome,
		outcomes:  make([]model.ActionOutcome, 0, total),
	}
}

// RunID returns the identifier assigned to the run.
func (r *Reporter) RunID() string { return r.runID }

// Len returns the number of outcomes recorded so far.
func (r *Reporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// Succeed records a successful action.
func (r *Reporter) Succeed(index int, action model.Action, result string, attempts int, d time.Duration) {
	r.record(model.ActionOutcome{
		Index:    index,
		Action:   action,
		Status:   model.StatusSuccess,
		Result:   result,
		Attempts: attempts,
		Duration: d,
	})
}

// Fail records a failed action.
func (r *Reporter) Fail(index int, action model.Action, kind model.ErrorKind, err error, attempts int, d time.Duration) {
	o := model.ActionOutcome{
		Index:     index,
		Action:    action,
		Status:    model.StatusFailure,
		ErrorKind: kind,
		Attempts:  attempts,
		Duration:  d,
	}
	if err != nil {
		o.Error = err.Error()
	}
	r.record(o)
}

// Skip records an action that was never dispatched.
func (r *Reporter) Skip(index int, action model.Action) {
	r.record(model.ActionOutcome{
		Index:  index,
		Action: action,
		Status: model.StatusSkipped,
	})
}

func (r *Reporter) record(o model.ActionOutcome) {
	o.ElapsedMs = o.Duration.Milliseconds()
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
	if r.onOutcome != nil {
		r.onOutcome(o)
	}
}

// Summary builds the run summary from the recorded outcomes.
func (r *Reporter) Summary(aborted bool, reason model.AbortReason) model.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := model.RunSummary{
		RunID:     r.runID,
		Total:     r.total,
		Aborted:   aborted,
		StartedAt: r.startedAt,
		ElapsedMs: time.Since(r.startedAt).Milliseconds(),
		Outcomes:  make([]model.ActionOutcome, len(r.outcomes)),
	}
	if aborted {
		s.AbortReason = reason
	}
	copy(s.Outcomes, r.outcomes)
	for _, o := range s.Outcomes {
		switch o.Status {
		case model.StatusSuccess:
			s.Succeeded++
		case model.StatusFailure:
			s.Failed++
		case model.StatusSkipped:
			s.Skipped++
		}
	}
	return s
}
