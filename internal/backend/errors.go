package backend

import (
	"errors"
	"fmt"
)

// Category classifies backend failures so callers can react without
// inspecting error messages.
type Category string

const (
	// CategoryTool is a failure reported by the tool itself.
	CategoryTool Category = "tool"
	// CategoryConnectivity means the endpoint could not be reached or did
	// not answer a health check.
	CategoryConnectivity Category = "connectivity"
	// CategoryUnknownTool means the endpoint does not expose the tool.
	CategoryUnknownTool Category = "unknown_tool"
)

var (
	// ErrNotConnected is returned for calls on a closed client.
	ErrNotConnected = errors.New("backend not connected")
	// ErrHealthCheck is returned when the endpoint stops answering pings.
	ErrHealthCheck = errors.New("backend health check failed")
)

// Error is a categorized failure of one tool call.
type Error struct {
	Tool     string
	Category Category
	Err      error
}

func (e *Error) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("%s error: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Tool, e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CategoryOf returns the category carried by err, if any.
func CategoryOf(err error) (Category, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be.Category, true
	}
	if errors.Is(err, ErrNotConnected) || errors.Is(err, ErrHealthCheck) {
		return CategoryConnectivity, true
	}
	return "", false
}

func toolError(tool string, err error) *Error {
	return &Error{Tool: tool, Category: CategoryTool, Err: err}
}

func connectivityError(tool string, err error) *Error {
	return &Error{Tool: tool, Category: CategoryConnectivity, Err: err}
}
