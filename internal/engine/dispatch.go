package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mj1618/desktop-pilot/internal/backend"
	"github.com/mj1618/desktop-pilot/internal/coords"
)

type dispatchResult struct {
	res backend.Result
	err error
}

// dispatch races one backend call against the action timeout. On timeout
// the call's context is cancelled and the goroutine is left to finish on
// its own; a late side effect at the backend is possible.
func (e *Engine) dispatch(ctx context.Context, name string, args map[string]interface{}) (backend.Result, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan dispatchResult, 1)
	go func() {
		res, err := e.backend.Invoke(callCtx, name, args)
		ch <- dispatchResult{res: res, err: err}
	}()

	timer := time.NewTimer(e.opts.ActionTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.res, r.err
	case <-timer.C:
		return backend.Result{}, fmt.Errorf("%s: %w after %s", name, errActionTimeout, e.opts.ActionTimeout)
	case <-ctx.Done():
		return backend.Result{}, ctx.Err()
	}
}

// normalizeArgs returns args with every configured coordinate pair mapped
// to device space. The original map is never modified. If the mapper
// fails the original coordinates are kept.
func (e *Engine) normalizeArgs(ctx context.Context, logger *slog.Logger, args map[string]interface{}) map[string]interface{} {
	if e.mapper == nil || len(args) == 0 {
		return args
	}

	var out map[string]interface{}
	for _, pair := range e.opts.CoordinateArgs {
		x, okX := toFloat(args[pair[0]])
		y, okY := toFloat(args[pair[1]])
		if !okX || !okY {
			continue
		}
		p, err := e.normalize(ctx, x, y)
		if err != nil {
			logger.Warn("coordinate normalization failed, using original coordinates",
				"x", x, "y", y, "error", err)
			return args
		}
		if out == nil {
			out = make(map[string]interface{}, len(args))
			for k, v := range args {
				out[k] = v
			}
		}
		out[pair[0]] = p.X
		out[pair[1]] = p.Y
		logger.Debug("normalized coordinates",
			"from", fmt.Sprintf("%g,%g", x, y),
			"to", fmt.Sprintf("%d,%d", p.X, p.Y))
	}
	if out == nil {
		return args
	}
	return out
}

// normalize bounds a mapper call, which may refresh the coordinate
// system from the backend, by the action timeout.
func (e *Engine) normalize(ctx context.Context, x, y float64) (coords.Point, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.ActionTimeout)
	defer cancel()
	return e.mapper.Normalize(ctx, x, y)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
