package bridge

import (
	"fmt"
	"time"
)

// EngineNotFoundError signals that the engine executable is not installed.
// The causal feature is optional, so this is an expected condition, not a
// fatal one; Guidance tells the operator how to enable it.
type EngineNotFoundError struct {
	Path     string
	Guidance string
}

func (e *EngineNotFoundError) Error() string {
	return fmt.Sprintf("causal engine not found at %q: %s", e.Path, e.Guidance)
}

// TimeoutError reports that the engine failed to exit within the configured
// limit. The subprocess has already been killed when this is returned.
type TimeoutError struct {
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("causal engine timed out after %s (limit %s)", e.Elapsed.Round(time.Millisecond), e.Limit)
}

// CrashError reports a non-zero exit from the engine process. Stderr is
// truncated to stderrLimit bytes before capture.
type CrashError struct {
	ExitCode int
	Stderr   string
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("causal engine exited with code %d: %s", e.ExitCode, e.Stderr)
}

// EngineReportedError carries a structured error the engine itself produced:
// the process exited cleanly but declared the computation failed.
type EngineReportedError struct {
	Message   string
	Traceback string
}

func (e *EngineReportedError) Error() string {
	return "causal engine reported an error: " + e.Message
}

// CircuitOpenError short-circuits a call while the breaker is cooling down
// after repeated failures. No subprocess was spawned.
type CircuitOpenError struct {
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("causal engine circuit is open, retry in %s", e.RetryAfter.Round(time.Second))
}
