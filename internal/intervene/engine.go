// Package intervene answers interventional queries (the do-operator and its
// soft variants) against an already fitted structural causal model.
package intervene

import (
	"context"

	"go.uber.org/zap"

	"causalbridge/api/schemas"
	"causalbridge/internal/scm"
	"causalbridge/internal/wire"
)

// numericKinds are the mechanism dtype annotations an intervention value may
// legally target. Mechanisms without a dtype annotation accept anything.
var numericKinds = map[string]struct{}{
	"":        {},
	"float":   {},
	"int":     {},
	"numeric": {},
}

// Engine estimates post-intervention distributions by delegating to the
// engine caller with the fitted model's graph.
type Engine struct {
	caller schemas.EngineCaller
	cfg    schemas.EngineConfig
	log    *zap.Logger
}

// NewEngine creates an intervention engine.
func NewEngine(caller schemas.EngineCaller, cfg schemas.EngineConfig, logger *zap.Logger) *Engine {
	if cfg.Quality == "" {
		cfg.Quality = schemas.QualityGood
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		caller: caller,
		cfg:    cfg,
		log:    logger.Named("intervene"),
	}
}

// Intervene runs one interventional query. Spec validation happens locally
// before any subprocess is spawned: unknown nodes and type mismatches return
// immediately. Bridge-layer failures come back as *UnavailableError.
func (e *Engine) Intervene(ctx context.Context, model *scm.FittedSCM, spec schemas.InterventionSpec) (*schemas.InterventionResult, error) {
	if err := e.validate(model, spec); err != nil {
		return nil, err
	}

	payload, err := wire.EncodeSpec(spec, model.Graph.Nodes())
	if err != nil {
		return nil, err
	}

	req := wire.NewInterveneRequest(model.Graph.Payload(), payload, e.cfg)
	resp, err := e.caller.Call(ctx, req)
	if err != nil {
		e.log.Warn("Causal intervention unavailable", zap.Error(err))
		return nil, &UnavailableError{Cause: err}
	}

	var missing []string
	for _, node := range payload.QueryNodes {
		if _, ok := resp.Statistics[node]; !ok {
			missing = append(missing, node)
		}
	}
	if len(missing) > 0 {
		err := &IncompletePayloadError{Missing: missing}
		e.log.Warn("Causal intervention answer incomplete", zap.Error(err))
		return nil, err
	}

	result := &schemas.InterventionResult{
		Statistics: resp.Statistics,
		Warnings:   resp.Warnings,
	}
	if resp.Metadata != nil {
		result.Metadata = *resp.Metadata
	} else {
		result.Metadata = schemas.InterventionMetadata{NumSamples: payload.NumSamples}
	}

	e.log.Info("Causal intervention answered",
		zap.Int("query_nodes", len(payload.QueryNodes)),
		zap.Int("num_samples", result.Metadata.NumSamples),
		zap.Float64("query_time_ms", result.Metadata.QueryTimeMs),
	)
	return result, nil
}

// validate fails fast on malformed specs so no engine call is consumed.
func (e *Engine) validate(model *scm.FittedSCM, spec schemas.InterventionSpec) error {
	for _, node := range spec.TargetNodes() {
		if !model.Graph.HasNode(node) {
			return &UnknownNodeError{Node: node}
		}
		if mech, ok := model.Mechanisms[node]; ok {
			if dtype, ok := mech.Params["dtype"].(string); ok {
				if _, numeric := numericKinds[dtype]; !numeric {
					return &TypeMismatchError{Node: node, Expected: dtype}
				}
			}
		}
	}
	for _, node := range spec.Options().QueryNodes {
		if !model.Graph.HasNode(node) {
			return &UnknownNodeError{Node: node}
		}
	}
	return nil
}
