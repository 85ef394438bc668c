// Package schemas defines the canonical types shared between the causal
// bridge components and the external statistical engine. Keeping the contract
// here, dependency-free, prevents import cycles between the internal packages
// and pins all "the engine's API might change" risk to one place.
package schemas

import "context"

// Operation names a request type understood by the external engine.
type Operation string

const (
	OperationFit       Operation = "fit"
	OperationIntervene Operation = "intervene"
)

// Quality selects the engine's speed/accuracy tradeoff when fitting
// mechanisms. The values are passed through to the engine verbatim.
type Quality string

const (
	QualityGood   Quality = "GOOD"
	QualityBetter Quality = "BETTER"
	QualityBest   Quality = "BEST"
)

// EngineConfig carries the fit-policy knobs the engine needs per call.
type EngineConfig struct {
	Quality     Quality `json:"quality"`
	ValidateR2  bool    `json:"validate_r2"`
	R2Threshold float64 `json:"r2_threshold"`
}

// GraphPayload is the wire form of a causal graph: an ordered node list and
// directed edges as [source, target] pairs.
type GraphPayload struct {
	Nodes []string    `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// EngineRequest is the single JSON document written to the engine's stdin.
// Traces and Intervention are nil when the operation does not need them.
type EngineRequest struct {
	RequestID    string               `json:"request_id"`
	Graph        GraphPayload         `json:"graph"`
	Traces       map[string][]float64 `json:"traces,omitempty"`
	Operation    Operation            `json:"operation"`
	Intervention *InterventionPayload `json:"intervention,omitempty"`
	Config       EngineConfig         `json:"config"`
}

// InterventionPayload is the wire form of an intervention spec. DoValues
// carries hard interventions, Transforms carries soft ones; both may be
// populated for a multiple intervention.
type InterventionPayload struct {
	DoValues   map[string]float64    `json:"do_values,omitempty"`
	Transforms map[string]SoftLayout `json:"transforms,omitempty"`
	QueryNodes []string              `json:"query_nodes,omitempty"`
	NumSamples int                   `json:"num_samples"`
}

// SoftLayout is the wire form of one soft intervention.
type SoftLayout struct {
	Transform string  `json:"transform"` // "shift" or "scale"
	Param     float64 `json:"param"`
}

// EngineResponse is the single JSON document read back from the engine's
// stdout. Status is always present; the remaining fields depend on the
// operation and on whether the engine reported an error.
type EngineResponse struct {
	Status     string                    `json:"status"`
	Error      string                    `json:"error,omitempty"`
	Traceback  string                    `json:"traceback,omitempty"`
	SCM        *SCMPayload               `json:"scm,omitempty"`
	Validation *ValidationPayload        `json:"validation,omitempty"`
	Statistics map[string]NodeStatistics `json:"statistics,omitempty"`
	Metadata   *InterventionMetadata     `json:"metadata,omitempty"`
	Warnings   []string                  `json:"warnings,omitempty"`
}

// Response status values. Exit code 0 and Status are checked independently;
// a clean exit with StatusError still counts as an engine-reported failure.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SCMPayload holds the fitted mechanisms keyed by node. Mechanism descriptors
// are opaque to this process; only the engine can interpret them.
type SCMPayload struct {
	Mechanisms map[string]Mechanism `json:"mechanisms"`
}

// Mechanism is an opaque fitted-mechanism descriptor produced by the engine.
// It is never constructed locally, only echoed back on intervention calls.
type Mechanism struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

// ValidationPayload reports per-node fit quality.
type ValidationPayload struct {
	R2Scores map[string]float64 `json:"r2_scores"`
	MeanR2   float64            `json:"mean_r2"`
}

// NodeStatistics summarizes a node's post-intervention marginal distribution.
type NodeStatistics struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// InterventionMetadata describes how an intervention estimate was produced.
type InterventionMetadata struct {
	NumSamples           int      `json:"num_samples"`
	InterventionsApplied []string `json:"interventions_applied"`
	QueryTimeMs          float64  `json:"query_time_ms"`
}

// InterventionResult is the consumer-facing answer to a causal query.
type InterventionResult struct {
	Statistics map[string]NodeStatistics `json:"statistics"`
	Metadata   InterventionMetadata      `json:"metadata"`
	Warnings   []string                  `json:"warnings,omitempty"`
}

// EngineCaller is the contract between the orchestration layers (fitter,
// intervention engine) and the transport underneath (the circuit breaker
// wrapping the process bridge). Implementations return typed errors from the
// bridge package for every expected failure mode rather than panicking.
type EngineCaller interface {
	Call(ctx context.Context, req *EngineRequest) (*EngineResponse, error)
}
