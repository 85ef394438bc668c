// Package scm fits structural causal models by orchestrating engine calls
// and enforcing fit-quality policy on the results.
package scm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"causalbridge/api/schemas"
	"causalbridge/internal/graph"
	"causalbridge/internal/tracestore"
	"causalbridge/internal/wire"
)

// Policy defaults.
const (
	DefaultMinSamples         = 100
	DefaultR2WarningThreshold = 0.7
)

// FittedSCM is an immutable fitted structural causal model. Mechanisms are
// opaque engine artifacts; every non-root node of Graph has a mechanism and
// an R² score, and MeanR2 is the mean over R2Scores.
type FittedSCM struct {
	Graph      *graph.CausalGraph
	Mechanisms map[string]schemas.Mechanism
	R2Scores   map[string]float64
	MeanR2     float64
	Warnings   []string
}

// Config tunes the fitter's local policy and the engine-side fit options.
type Config struct {
	MinSamples         int
	R2WarningThreshold float64
	Engine             schemas.EngineConfig
}

// Fitter turns a validated graph plus optional traces into a FittedSCM via
// the engine caller (normally the circuit breaker over the process bridge).
type Fitter struct {
	caller schemas.EngineCaller
	cfg    Config
	log    *zap.Logger
}

// NewFitter creates a Fitter. Zero-valued config fields select defaults.
func NewFitter(caller schemas.EngineCaller, cfg Config, logger *zap.Logger) *Fitter {
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = DefaultMinSamples
	}
	if cfg.R2WarningThreshold <= 0 {
		cfg.R2WarningThreshold = DefaultR2WarningThreshold
	}
	if cfg.Engine.Quality == "" {
		cfg.Engine.Quality = schemas.QualityGood
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fitter{
		caller: caller,
		cfg:    cfg,
		log:    logger.Named("fitter"),
	}
}

// Fit fits mechanisms for every non-root node of g. Traces may be nil. All
// bridge-layer failures come back as *UnavailableError; precondition
// violations (nil graph, missing trace columns) are returned directly and
// must be handled by the caller.
func (f *Fitter) Fit(ctx context.Context, g *graph.CausalGraph, traces *tracestore.TraceSet) (*FittedSCM, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	var warnings []string
	var payload map[string][]float64
	if traces != nil {
		var missing []string
		for _, node := range g.Nodes() {
			if !traces.Has(node) {
				missing = append(missing, node)
			}
		}
		if len(missing) > 0 {
			return nil, &MissingTraceDataError{Missing: missing}
		}
		if traces.Rows() < f.cfg.MinSamples {
			warnings = append(warnings, fmt.Sprintf(
				"insufficient samples: %d observations, at least %d recommended for a stable fit",
				traces.Rows(), f.cfg.MinSamples,
			))
		}
		payload = traces.Payload()
	}

	req := wire.NewFitRequest(g.Payload(), payload, f.cfg.Engine)
	resp, err := f.caller.Call(ctx, req)
	if err != nil {
		f.log.Warn("Causal model fit unavailable", zap.Error(err))
		return nil, &UnavailableError{Cause: err}
	}

	// Wire validation guarantees the maps exist; completeness per node is
	// checked here because it needs the graph.
	var missing []string
	for _, node := range g.Nodes() {
		if len(g.Parents(node)) == 0 {
			continue
		}
		_, hasMech := resp.SCM.Mechanisms[node]
		_, hasR2 := resp.Validation.R2Scores[node]
		if !hasMech || !hasR2 {
			missing = append(missing, node)
		}
	}
	if len(missing) > 0 {
		err := &IncompleteFitError{Missing: missing}
		f.log.Warn("Causal model fit incomplete", zap.Error(err))
		return nil, err
	}

	meanR2 := resp.Validation.MeanR2
	if len(resp.Validation.R2Scores) > 0 {
		// Recompute locally; the invariant is ours to uphold, not the
		// engine's to promise.
		sum := 0.0
		for _, r2 := range resp.Validation.R2Scores {
			sum += r2
		}
		meanR2 = sum / float64(len(resp.Validation.R2Scores))
	}

	warnings = append(warnings, resp.Warnings...)
	if len(resp.Validation.R2Scores) > 0 && meanR2 < f.cfg.R2WarningThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"low fit quality: mean R² %.3f below %.2f", meanR2, f.cfg.R2WarningThreshold,
		))
	}
	if f.cfg.Engine.ValidateR2 && meanR2 < f.cfg.Engine.R2Threshold {
		return nil, &LowQualityFitError{MeanR2: meanR2, Threshold: f.cfg.Engine.R2Threshold}
	}

	f.log.Info("Causal model fitted",
		zap.Int("nodes", g.NodeCount()),
		zap.Int("mechanisms", len(resp.SCM.Mechanisms)),
		zap.Float64("mean_r2", meanR2),
		zap.Int("warnings", len(warnings)),
	)
	return &FittedSCM{
		Graph:      g,
		Mechanisms: resp.SCM.Mechanisms,
		R2Scores:   resp.Validation.R2Scores,
		MeanR2:     meanR2,
		Warnings:   warnings,
	}, nil
}
