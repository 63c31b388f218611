// Package engine executes plans of desktop actions one at a time against an
// automation backend, normalizing coordinates, enforcing per-action
// deadlines and deciding which failures abort the run.
package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mj1618/desktop-pilot/internal/backend"
	"github.com/mj1618/desktop-pilot/internal/coords"
	"github.com/mj1618/desktop-pilot/internal/model"
)

const tracerName = "github.com/mj1618/desktop-pilot/internal/engine"

// Default option values.
const (
	DefaultActionTimeout     = 30 * time.Second
	DefaultActionDelay       = 100 * time.Millisecond
	DefaultGracefulAbortWait = 5 * time.Second
	DefaultRetryDelay        = 500 * time.Millisecond
)

// DefaultCoordinateArgs are the argument pairs treated as snapshot-space
// coordinates.
var DefaultCoordinateArgs = [][2]string{
	{"x", "y"},
	{"fromX", "fromY"},
	{"toX", "toY"},
}

// Normalizer maps snapshot-space coordinates to device space.
type Normalizer interface {
	Normalize(ctx context.Context, x, y float64) (coords.Point, error)
}

// Catalog is implemented by backends that know which tools they expose.
type Catalog interface {
	HasTool(name string) bool
}

// Options configures an Engine. Zero durations take the defaults.
type Options struct {
	ActionTimeout     time.Duration
	ActionDelay       time.Duration
	GracefulAbortWait time.Duration
	// Retries is the number of extra attempts for ordinary backend errors.
	Retries    int
	RetryDelay time.Duration
	// StrictPlans rejects empty plans in Submit.
	StrictPlans bool
	// Policy defaults to DefaultPolicy when both tables are nil.
	Policy         Policy
	CoordinateArgs [][2]string
	Logger         *slog.Logger
	// OnOutcome is called after each outcome is recorded.
	OnOutcome func(model.ActionOutcome)
}

func (o Options) withDefaults() Options {
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = DefaultActionTimeout
	}
	if o.ActionDelay < 0 {
		o.ActionDelay = 0
	} else if o.ActionDelay == 0 {
		o.ActionDelay = DefaultActionDelay
	}
	if o.GracefulAbortWait <= 0 {
		o.GracefulAbortWait = DefaultGracefulAbortWait
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.Policy.Critical == nil && o.Policy.FatalKinds == nil {
		o.Policy = DefaultPolicy()
	}
	if o.CoordinateArgs == nil {
		o.CoordinateArgs = DefaultCoordinateArgs
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Engine owns a queued plan and runs it.
type Engine struct {
	backend backend.Invoker
	mapper  Normalizer
	opts    Options
	logger  *slog.Logger
	tracer  trace.Tracer

	mu       sync.Mutex
	plan     model.Plan
	running  bool
	done     chan struct{}
	reporter *Reporter
	reason   model.AbortReason

	current atomic.Int64
	aborted atomic.Bool
}

// New creates an engine dispatching to b. mapper may be nil, in which case
// coordinates are passed through unchanged. A negative ActionDelay disables
// the inter-action delay.
func New(b backend.Invoker, mapper Normalizer, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		backend: b,
		mapper:  mapper,
		opts:    opts,
		logger:  opts.Logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// Submit replaces the queued plan and resets the run state.
func (e *Engine) Submit(plan model.Plan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrConcurrentRun
	}
	if len(plan) == 0 && e.opts.StrictPlans {
		return ErrInvalidPlan
	}
	e.plan = plan.Clone()
	e.reset()
	return nil
}

// Clear empties the queue.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return ErrConcurrentRun
	}
	e.plan = nil
	e.reset()
	return nil
}

// reset must be called with e.mu held.
func (e *Engine) reset() {
	e.reporter = nil
	e.reason = model.AbortNone
	e.current.Store(0)
	e.aborted.Store(false)
}

// Plan returns a copy of the queued plan.
func (e *Engine) Plan() model.Plan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan.Clone()
}

// Remaining returns the queued actions that have no outcome yet.
func (e *Engine) Remaining() model.Plan {
	e.mu.Lock()
	defer e.mu.Unlock()
	done := 0
	if e.reporter != nil {
		done = e.reporter.Len()
	}
	if done >= len(e.plan) {
		return model.Plan{}
	}
	return e.plan[done:].Clone()
}

// Status returns a snapshot of the queue position.
func (e *Engine) Status() model.Status {
	e.mu.Lock()
	total := len(e.plan)
	rep := e.reporter
	running := e.running
	e.mu.Unlock()

	completed := 0
	if rep != nil {
		completed = rep.Len()
	}
	idx := int(e.current.Load())
	current := 0
	switch {
	case running:
		current = min(idx+1, total)
	case rep != nil:
		current = min(idx, total)
	}
	return model.Status{
		Total:     total,
		Current:   current,
		Remaining: total - completed,
		Completed: completed,
		Aborted:   e.aborted.Load(),
		Running:   running,
	}
}

// Abort stops the run before its next action. It does not wait; the
// action in flight, if any, still completes or times out and is recorded.
func (e *Engine) Abort() {
	e.markAborted(model.AbortRequested)
}

// AbortGracefully aborts and waits until the run has finished, the graceful
// wait elapses, or ctx ends. It reports whether the run finished.
func (e *Engine) AbortGracefully(ctx context.Context) bool {
	e.markAborted(model.AbortRequested)

	e.mu.Lock()
	running, done := e.running, e.done
	e.mu.Unlock()
	if !running {
		return true
	}

	timer := time.NewTimer(e.opts.GracefulAbortWait)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		e.logger.Warn("graceful abort timed out", "wait", e.opts.GracefulAbortWait)
		return false
	case <-ctx.Done():
		return false
	}
}

// markAborted sets the abort flag once; the first reason wins.
func (e *Engine) markAborted(reason model.AbortReason) {
	e.mu.Lock()
	first := e.aborted.CompareAndSwap(false, true)
	if first {
		e.reason = reason
	}
	e.mu.Unlock()
	if first {
		e.logger.Info("run aborted", "reason", string(reason))
	}
}

func (e *Engine) abortState() (bool, model.AbortReason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aborted.Load(), e.reason
}

// Execute runs the queued plan. The only error is ErrConcurrentRun: every
// action failure is reported in the summary.
func (e *Engine) Execute(ctx context.Context) (*model.RunSummary, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, ErrConcurrentRun
	}
	plan := e.plan
	rep := NewReporter(len(plan), e.opts.OnOutcome)
	done := make(chan struct{})
	e.running = true
	e.done = done
	e.reporter = rep
	e.reason = model.AbortNone
	e.current.Store(0)
	e.aborted.Store(false)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(done)
	}()

	ctx, span := e.tracer.Start(ctx, "engine.run", trace.WithAttributes(
		attribute.String("run.id", rep.RunID()),
		attribute.Int("plan.length", len(plan)),
	))
	defer span.End()

	logger := e.logger.With("run_id", rep.RunID())
	logger.Info("run started", "actions", len(plan))

	// The summary uses the abort state last observed by the loop.
	var (
		aborted bool
		reason  model.AbortReason
	)
	for i, action := range plan {
		if ctx.Err() != nil {
			e.markAborted(model.AbortCanceled)
		}
		if aborted, reason = e.abortState(); aborted {
			for j := i; j < len(plan); j++ {
				rep.Skip(j, plan[j])
			}
			break
		}
		e.current.Store(int64(i))
		if e.runAction(ctx, logger, rep, i, len(plan), action) && i == len(plan)-1 {
			aborted, reason = e.abortState()
		}
	}
	e.current.Store(int64(len(plan)))

	summary := rep.Summary(aborted, reason)
	span.SetAttributes(
		attribute.Int("run.succeeded", summary.Succeeded),
		attribute.Int("run.failed", summary.Failed),
		attribute.Bool("run.aborted", summary.Aborted),
	)
	if summary.Aborted {
		span.SetStatus(codes.Error, "aborted: "+string(summary.AbortReason))
	}
	logger.Info("run finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"aborted", summary.Aborted,
		"elapsed_ms", summary.ElapsedMs,
	)
	return &summary, nil
}

// runAction records exactly one outcome for action and reports whether
// its failure aborted the run.
func (e *Engine) runAction(ctx context.Context, logger *slog.Logger, rep *Reporter, i, total int, action model.Action) bool {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.action", trace.WithAttributes(
		attribute.String("action.name", action.Name),
		attribute.Int("action.index", i),
	))
	defer span.End()

	logger = logger.With("index", i+1, "total", total, "action", action.Name)
	logger.Info("executing action", "description", action.Label())

	if action.Name == "" {
		e.fail(logger, span, rep, i, action, model.KindInvalidAction, errMissingName, 0, time.Since(start))
		return false
	}
	if cat, ok := e.backend.(Catalog); ok && !cat.HasTool(action.Name) {
		err := &backend.Error{Tool: action.Name, Category: backend.CategoryUnknownTool, Err: errUnknownTool}
		e.fail(logger, span, rep, i, action, model.KindInvalidAction, err, 0, time.Since(start))
		return false
	}

	args := e.normalizeArgs(ctx, logger, action.Arguments)

	for attempt := 1; ; attempt++ {
		res, err := e.dispatch(ctx, action.Name, args)
		if err == nil {
			rep.Succeed(i, action, res.Text, attempt, time.Since(start))
			logger.Info("action succeeded", "elapsed", time.Since(start))
			e.pause(ctx, e.opts.ActionDelay)
			return false
		}

		kind := classify(err)
		if e.retryable(ctx, action.Name, kind, attempt) {
			logger.Warn("action failed, retrying", "attempt", attempt, "error", err)
			e.pause(ctx, e.opts.RetryDelay)
			continue
		}
		e.fail(logger, span, rep, i, action, kind, err, attempt, time.Since(start))
		abort, reason := e.opts.Policy.Decide(action.Name, kind)
		if abort {
			e.markAborted(reason)
		}
		return abort
	}
}

func (e *Engine) retryable(ctx context.Context, name string, kind model.ErrorKind, attempt int) bool {
	return kind == model.KindBackend &&
		attempt <= e.opts.Retries &&
		!e.opts.Policy.IsCritical(name) &&
		!e.aborted.Load() &&
		ctx.Err() == nil
}

func (e *Engine) fail(logger *slog.Logger, span trace.Span, rep *Reporter, i int, action model.Action, kind model.ErrorKind, err error, attempts int, d time.Duration) {
	rep.Fail(i, action, kind, err, attempts, d)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(kind))
	logger.Warn("action failed", "kind", string(kind), "error", err)
}

// pause waits for d or until ctx ends.
func (e *Engine) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
