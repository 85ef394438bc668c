// Package bridge owns every interaction with the external statistical engine
// process: spawning it, feeding it one request over stdin, enforcing the call
// timeout, classifying every way the call can fail, and protecting callers
// from a flapping engine with a circuit breaker. Nothing above this package
// touches os/exec.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"causalbridge/api/schemas"
	"causalbridge/internal/wire"
)

const (
	// DefaultCallTimeout bounds a single engine invocation.
	DefaultCallTimeout = 30 * time.Second

	// stderrLimit caps how much of a crashed engine's stderr is retained
	// for the error value and logs.
	stderrLimit = 2048
)

// installGuidance is attached to EngineNotFoundError so the operator can act
// on the warning without digging through documentation.
const installGuidance = "install the engine package and set engine.path in the configuration (or CAUSALBRIDGE_ENGINE_PATH)"

// ProcessBridge invokes the engine as a one-shot child process per call.
// There is deliberately no persistent server: a crashed or wedged engine
// leaves no state behind, and the kernel reclaims everything on kill.
type ProcessBridge struct {
	path    string
	timeout time.Duration
	limiter *rate.Limiter
	log     *zap.Logger
}

var _ schemas.EngineCaller = (*ProcessBridge)(nil)

// NewProcessBridge creates a bridge for the engine executable at path. A
// non-positive timeout selects DefaultCallTimeout.
func NewProcessBridge(path string, timeout time.Duration, logger *zap.Logger) *ProcessBridge {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessBridge{
		path:    path,
		timeout: timeout,
		// Spawn throttle: a misbehaving caller loop cannot fork-bomb the
		// host. Steady state of 5 spawns/sec is far above legitimate use.
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		log:     logger.Named("bridge"),
	}
}

// Call runs one engine invocation. Every expected failure mode comes back as
// a typed error (EngineNotFoundError, TimeoutError, CrashError,
// wire.ProtocolError, EngineReportedError); only genuinely unexpected
// conditions (for example a fork failure) surface as plain wrapped errors.
func (p *ProcessBridge) Call(ctx context.Context, req *schemas.EngineRequest) (*schemas.EngineResponse, error) {
	if _, err := os.Stat(p.path); err != nil {
		return nil, &EngineNotFoundError{Path: p.path, Guidance: installGuidance}
	}

	encoded, err := wire.Encode(req)
	if err != nil {
		return nil, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for spawn slot: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(callCtx, p.path)
	cmd.Stdin = bytes.NewReader(encoded)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Without a wait delay, an orphaned grandchild holding the output pipe
	// would stall Run past the kill.
	cmd.WaitDelay = time.Second

	p.log.Debug("Invoking causal engine",
		zap.String("request_id", req.RequestID),
		zap.String("operation", string(req.Operation)),
		zap.Int("request_bytes", len(encoded)),
	)

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	// CommandContext has already killed the child when the deadline fired;
	// runErr then reflects the kill, so check the context first.
	if callCtx.Err() == context.DeadlineExceeded {
		p.log.Warn("Causal engine timed out",
			zap.String("request_id", req.RequestID),
			zap.Duration("elapsed", elapsed),
			zap.Duration("limit", p.timeout),
		)
		return nil, &TimeoutError{Elapsed: elapsed, Limit: p.timeout}
	}
	// A canceled parent context also kills the child; without this check the
	// kill would be misread as an engine crash.
	if ctxErr := context.Cause(callCtx); errors.Is(ctxErr, context.Canceled) {
		return nil, fmt.Errorf("engine call canceled: %w", ctxErr)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			captured := truncate(stderr.Bytes(), stderrLimit)
			p.log.Warn("Causal engine crashed",
				zap.String("request_id", req.RequestID),
				zap.Int("exit_code", exitErr.ExitCode()),
				zap.String("stderr", captured),
			)
			return nil, &CrashError{ExitCode: exitErr.ExitCode(), Stderr: captured}
		}
		return nil, fmt.Errorf("spawning causal engine: %w", runErr)
	}

	resp, err := wire.Decode(stdout.Bytes(), req.Operation)
	if err != nil {
		p.log.Warn("Causal engine produced an undecodable response",
			zap.String("request_id", req.RequestID),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.Status == schemas.StatusError {
		p.log.Warn("Causal engine reported an error",
			zap.String("request_id", req.RequestID),
			zap.String("error", resp.Error),
		)
		return nil, &EngineReportedError{Message: resp.Error, Traceback: resp.Traceback}
	}

	p.log.Debug("Causal engine call succeeded",
		zap.String("request_id", req.RequestID),
		zap.Duration("elapsed", elapsed),
	)
	return resp, nil
}

func truncate(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "... (truncated)"
}
