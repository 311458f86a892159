package models

import (
	"errors"
	"fmt"
)

// Failure kinds raised inside the pipeline. Callers match them with errors.Is.
var (
	ErrInsufficientData   = errors.New("insufficient data")
	ErrUpstreamFailure    = errors.New("upstream service failure")
	ErrValidationRejected = errors.New("validation rejected")
	ErrEvaluation         = errors.New("evaluation error")
)

// PipelineError attaches an operation and a cause to one of the failure kinds
type PipelineError struct {
	Kind error
	Op   string
	Err  error
}

// NewPipelineError creates a PipelineError of the given kind
func NewPipelineError(kind error, op string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: err}
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
