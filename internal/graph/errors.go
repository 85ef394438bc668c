package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyGraph signals a node list with no entries. Callers treat this as
// "feature unavailable for this input", not as a failure worth surfacing.
var ErrEmptyGraph = errors.New("causal graph has no nodes")

// TooLargeError rejects graphs above the configured node limit. This is a
// performance guard for the external engine, not a correctness issue.
type TooLargeError struct {
	NodeCount int
	Limit     int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("causal graph has %d nodes, exceeding the limit of %d", e.NodeCount, e.Limit)
}

// CycleError rejects a non-DAG edge set. Cycle holds one example cycle as a
// node path whose first and last elements are equal.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("causal graph contains a cycle: %s", strings.Join(e.Cycle, " -> "))
}

// DuplicateNodeError indicates the caller supplied the same identifier twice.
// This is a programming error upstream, never swallowed.
type DuplicateNodeError struct {
	Node string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node identifier %q", e.Node)
}

// EndpointError indicates an edge referencing an identifier missing from the
// node list. Also a programming error upstream.
type EndpointError struct {
	Source string
	Target string
	Node   string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("edge [%s -> %s] references unknown node %q", e.Source, e.Target, e.Node)
}
