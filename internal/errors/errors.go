// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrEmptyPortfolio   = errors.New("portfolio contains no holdings")
	ErrEmptyResponse    = errors.New("model returned an empty response")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrTokenRefresh     = errors.New("access token refresh failed")
)

// Pipeline stage names used in PipelineError.
const (
	StageResearch  = "research"
	StageAggregate = "aggregate"
	StageRecommend = "recommend"
)

// PipelineError represents a pipeline-fatal failure. It carries the stage
// that failed and the trigger that started the run so the caller can render
// a failure notification instead of a report.
type PipelineError struct {
	Stage   string
	Trigger string
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed [%s stage, trigger=%s]: %v", e.Stage, e.Trigger, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(stage, trigger string, err error) *PipelineError {
	return &PipelineError{
		Stage:   stage,
		Trigger: trigger,
		Err:     err,
	}
}

// ProviderError represents a failed provider lookup. It is recovered at the
// call site and recorded inline on the research record, never propagated.
type ProviderError struct {
	Provider string
	Symbol   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error [%s] %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, symbol string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Symbol:   symbol,
		Err:      err,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
