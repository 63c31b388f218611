package engine

import (
	"context"
	"errors"

	"github.com/mj1618/desktop-pilot/internal/backend"
	"github.com/mj1618/desktop-pilot/internal/model"
)

var (
	// ErrInvalidPlan is returned by Submit for an empty plan when
	// Options.StrictPlans is set.
	ErrInvalidPlan = errors.New("invalid plan: no actions")
	// ErrConcurrentRun is returned when a run is already active.
	ErrConcurrentRun = errors.New("a run is already in progress on this engine")

	errMissingName   = errors.New("action has no name")
	errUnknownTool   = errors.New("tool not exposed by the backend")
	errActionTimeout = errors.New("action timed out")
)

// categoryKinds maps backend failure categories to outcome error kinds.
var categoryKinds = map[backend.Category]model.ErrorKind{
	backend.CategoryTool:         model.KindBackend,
	backend.CategoryConnectivity: model.KindConnectivity,
	backend.CategoryUnknownTool:  model.KindInvalidAction,
}

// classify derives the error kind of a failed dispatch.
func classify(err error) model.ErrorKind {
	switch {
	case errors.Is(err, errActionTimeout), errors.Is(err, context.DeadlineExceeded):
		return model.KindTimeout
	case errors.Is(err, context.Canceled):
		return model.KindCanceled
	}
	if cat, ok := backend.CategoryOf(err); ok {
		if kind, ok := categoryKinds[cat]; ok {
			return kind
		}
	}
	return model.KindBackend
}
