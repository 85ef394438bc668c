// Package facade exposes the consumer-facing causal analysis API: a lazy,
// cached view over graph construction, model fitting, and interventional
// queries. Expected failures (engine missing, timeouts, open circuit, cyclic
// input) surface as nil results with a log line, never as errors; errors are
// reserved for malformed caller input.
package facade

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"causalbridge/api/schemas"
	"causalbridge/internal/bridge"
	"causalbridge/internal/config"
	"causalbridge/internal/graph"
	"causalbridge/internal/intervene"
	"causalbridge/internal/scm"
	"causalbridge/internal/tracestore"
)

// DefaultModelCacheSize bounds the fitted-model LRU when the config does not.
const DefaultModelCacheSize = 32

// Analysis owns one node/edge list and answers causal queries about it. The
// graph is built at most once; the model is fitted at most once per
// (graph, traces) content key, with concurrent requesters coalesced onto a
// single engine call.
type Analysis struct {
	log    *zap.Logger
	cfg    config.Config
	caller schemas.EngineCaller

	builder *graph.Builder
	fitter  *scm.Fitter
	engine  *intervene.Engine

	nodes  []string
	edges  [][2]string
	traces *tracestore.TraceSet

	graphOnce sync.Once
	graph     *graph.CausalGraph
	graphErr  error

	flight singleflight.Group
	models *lru.Cache[string, *scm.FittedSCM]
}

// Option customizes an Analysis.
type Option func(*Analysis)

// WithCaller replaces the default breaker-over-bridge transport. Used by
// tests and by callers sharing one breaker across facades.
func WithCaller(caller schemas.EngineCaller) Option {
	return func(a *Analysis) {
		a.caller = caller
	}
}

// New assembles the full stack under a facade for the given node/edge list.
// Traces may be nil.
func New(cfg config.Config, nodes []string, edges [][2]string, traces *tracestore.TraceSet, logger *zap.Logger, opts ...Option) (*Analysis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Analysis{
		log:    logger.Named("causal"),
		cfg:    cfg,
		nodes:  nodes,
		edges:  edges,
		traces: traces,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.caller == nil {
		proc := bridge.NewProcessBridge(cfg.Engine.Path, cfg.Engine.CallTimeout, logger)
		a.caller = bridge.NewCircuitBreaker(proc, cfg.Breaker.FailureThreshold, cfg.Breaker.CooldownPeriod, logger)
	}

	cacheSize := cfg.Fit.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultModelCacheSize
	}
	models, err := lru.New[string, *scm.FittedSCM](cacheSize)
	if err != nil {
		return nil, err
	}
	a.models = models

	a.builder = graph.NewBuilder(cfg.Engine.MaxNodes, logger)
	a.fitter = scm.NewFitter(a.caller, scm.Config{
		MinSamples:         cfg.Fit.MinSamples,
		R2WarningThreshold: cfg.Fit.R2WarningThreshold,
		Engine:             cfg.EngineSettings(),
	}, logger)
	a.engine = intervene.NewEngine(a.caller, cfg.EngineSettings(), logger)
	return a, nil
}

// Graph returns the validated causal graph, building it on first access. An
// empty, oversized, or cyclic input yields (nil, nil) after a warning;
// malformed input (duplicate nodes, dangling edge endpoints) is an error.
func (a *Analysis) Graph() (*graph.CausalGraph, error) {
	a.graphOnce.Do(func() {
		g, err := a.builder.Build(a.nodes, a.edges)
		if err == nil {
			a.graph = g
			return
		}
		var tooLarge *graph.TooLargeError
		var cycle *graph.CycleError
		switch {
		case errors.Is(err, graph.ErrEmptyGraph):
			// Already logged by the builder; an empty graph is a valid
			// empty result.
		case errors.As(err, &tooLarge), errors.As(err, &cycle):
			a.log.Warn("Causal graph unavailable", zap.Error(err))
		default:
			a.graphErr = err
		}
	})
	return a.graph, a.graphErr
}

// Model returns the fitted causal model, fitting it on first access.
// Concurrent callers for the same content key share a single engine call.
// Expected failures yield (nil, nil); missing trace columns are an error.
func (a *Analysis) Model(ctx context.Context) (*scm.FittedSCM, error) {
	g, err := a.Graph()
	if err != nil || g == nil {
		return nil, err
	}

	key := a.modelKey(g)
	if m, ok := a.models.Get(key); ok {
		a.log.Info("Causal model cache hit", zap.String("key", key[:12]))
		return m, nil
	}

	v, err, _ := a.flight.Do(key, func() (any, error) {
		if m, ok := a.models.Get(key); ok {
			return m, nil
		}
		m, err := a.fitter.Fit(ctx, g, a.traces)
		if err != nil {
			return nil, err
		}
		a.models.Add(key, m)
		return m, nil
	})
	if err != nil {
		var missing *scm.MissingTraceDataError
		if errors.As(err, &missing) || errors.Is(err, scm.ErrNilGraph) {
			return nil, err
		}
		// Unavailable, low quality, incomplete: the fitter has logged the
		// cause; the feature is simply absent for this input.
		return nil, nil
	}
	return v.(*scm.FittedSCM), nil
}

// Impact returns the names of nodes causally downstream of target, or nil
// when the graph is unavailable. An unknown target is an error.
func (a *Analysis) Impact(target string) ([]string, error) {
	g, err := a.Graph()
	if err != nil || g == nil {
		return nil, err
	}
	downstream, ok := g.Descendants(target)
	if !ok {
		return nil, &intervene.UnknownNodeError{Node: target}
	}
	return downstream, nil
}

// Intervene answers an interventional query against the fitted model.
// Unknown nodes and type mismatches are errors; everything else degrades to
// (nil, nil) with the cause logged.
func (a *Analysis) Intervene(ctx context.Context, spec schemas.InterventionSpec) (*schemas.InterventionResult, error) {
	m, err := a.Model(ctx)
	if err != nil || m == nil {
		return nil, err
	}

	result, err := a.engine.Intervene(ctx, m, spec)
	if err != nil {
		var unknown *intervene.UnknownNodeError
		var mismatch *intervene.TypeMismatchError
		if errors.As(err, &unknown) || errors.As(err, &mismatch) {
			return nil, err
		}
		return nil, nil
	}
	return result, nil
}

// modelKey derives the content hash binding a fitted model to the exact
// graph and observation data that produced it.
func (a *Analysis) modelKey(g *graph.CausalGraph) string {
	h := sha256.New()
	payload := g.Payload()
	for _, n := range payload.Nodes {
		h.Write([]byte(n))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
	for _, e := range payload.Edges {
		h.Write([]byte(e[0]))
		h.Write([]byte{0})
		h.Write([]byte(e[1]))
		h.Write([]byte{0})
	}
	if a.traces != nil {
		h.Write([]byte{2})
		h.Write([]byte(a.traces.Fingerprint()))
	}
	return hex.EncodeToString(h.Sum(nil))
}
