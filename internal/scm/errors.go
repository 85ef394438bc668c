package scm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilGraph indicates the caller passed a nil graph. This is a programming
// error upstream and is never swallowed.
var ErrNilGraph = errors.New("cannot fit a nil causal graph")

// MissingTraceDataError indicates the supplied traces lack a column for one
// or more graph nodes.
type MissingTraceDataError struct {
	Missing []string
}

func (e *MissingTraceDataError) Error() string {
	return "traces are missing columns for nodes: " + strings.Join(e.Missing, ", ")
}

// IncompleteFitError indicates the engine answered successfully but omitted
// the mechanism or R² entry for one or more non-root nodes.
type IncompleteFitError struct {
	Missing []string
}

func (e *IncompleteFitError) Error() string {
	return "fit response is missing mechanisms for nodes: " + strings.Join(e.Missing, ", ")
}

// LowQualityFitError rejects a fit whose mean R² falls below the configured
// threshold when validate_r2 is enabled. Returning a typed failure here is a
// policy choice: a model this poor is worse than no model.
type LowQualityFitError struct {
	MeanR2    float64
	Threshold float64
}

func (e *LowQualityFitError) Error() string {
	return fmt.Sprintf("fitted model quality too low: mean R² %.3f below threshold %.3f", e.MeanR2, e.Threshold)
}

// UnavailableError wraps any bridge-layer failure (engine missing, timeout,
// crash, protocol violation, open circuit). Fitting is an optional
// enhancement; callers translate this into an absent model, never a crash.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return "causal model fitting unavailable: " + e.Cause.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Cause }
