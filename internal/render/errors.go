package render

import (
	"errors"
	"fmt"
)

// Render failure kinds.
var (
	ErrComponentMissing     = errors.New("component not declared")
	ErrTemplateMissing      = errors.New("template missing")
	ErrUnresolvedExpression = errors.New("unresolved expression")
	ErrTemplateFailure      = errors.New("template failure")
	ErrIOFailure            = errors.New("output failure")
	ErrInvalidEnvironment   = errors.New("invalid environment")
)

// RenderError reports why rendering a component failed. errors.Is matches
// both the kind and the underlying cause.
type RenderError struct {
	Kind      error
	Component string
	Err       error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Component)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Component, e.Err)
}

// Unwrap returns the kind and the cause.
func (e *RenderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, component string, cause error) *RenderError {
	return &RenderError{Kind: kind, Component: component, Err: cause}
}
