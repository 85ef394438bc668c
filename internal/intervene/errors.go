package intervene

import (
	"fmt"
	"strings"
)

// UnknownNodeError indicates the spec references a node absent from the
// fitted graph. This is a programming error upstream; it fails before any
// subprocess is spawned and is never swallowed.
type UnknownNodeError struct {
	Node string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("intervention references unknown node %q", e.Node)
}

// TypeMismatchError indicates a numeric intervention was requested against a
// node whose fitted mechanism records a non-numeric domain.
type TypeMismatchError struct {
	Node     string
	Expected string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("intervention on node %q expects type %s, got a numeric value", e.Node, e.Expected)
}

// IncompletePayloadError indicates the engine's answer omitted statistics
// for one or more requested query nodes.
type IncompletePayloadError struct {
	Missing []string
}

func (e *IncompletePayloadError) Error() string {
	return "intervention response is missing statistics for nodes: " + strings.Join(e.Missing, ", ")
}

// UnavailableError wraps bridge-layer failures during an intervention query.
// Like fitting, interventions degrade to "unavailable" rather than crashing
// the caller.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return "causal intervention unavailable: " + e.Cause.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Cause }
