package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"causalbridge/api/schemas"
	"causalbridge/internal/wire"
)

// writeEngineScript drops an executable shell script standing in for the
// external engine.
func writeEngineScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("engine stub scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "engine.sh")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func fitRequest() *schemas.EngineRequest {
	return wire.NewFitRequest(
		schemas.GraphPayload{Nodes: []string{"x", "y"}, Edges: [][2]string{{"x", "y"}}},
		nil,
		schemas.EngineConfig{Quality: schemas.QualityGood},
	)
}

func TestProcessBridge_EngineNotFound(t *testing.T) {
	p := NewProcessBridge(filepath.Join(t.TempDir(), "missing"), time.Second, zap.NewNop())

	_, err := p.Call(context.Background(), fitRequest())
	var notFound *EngineNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Guidance, "engine.path")
}

func TestProcessBridge_Success(t *testing.T) {
	path := writeEngineScript(t, `cat > /dev/null
echo '{"status":"success","scm":{"mechanisms":{"y":{"kind":"linear"}}},"validation":{"r2_scores":{"y":0.9},"mean_r2":0.9}}'`)
	p := NewProcessBridge(path, 5*time.Second, zap.NewNop())

	resp, err := p.Call(context.Background(), fitRequest())
	require.NoError(t, err)
	assert.Equal(t, schemas.StatusSuccess, resp.Status)
	assert.Contains(t, resp.SCM.Mechanisms, "y")
}

func TestProcessBridge_Crash(t *testing.T) {
	path := writeEngineScript(t, `cat > /dev/null
echo "numpy import failed" >&2
exit 3`)
	p := NewProcessBridge(path, 5*time.Second, zap.NewNop())

	_, err := p.Call(context.Background(), fitRequest())
	var crash *CrashError
	require.ErrorAs(t, err, &crash)
	assert.Equal(t, 3, crash.ExitCode)
	assert.Contains(t, crash.Stderr, "numpy import failed")
}

func TestProcessBridge_Timeout(t *testing.T) {
	path := writeEngineScript(t, `cat > /dev/null
exec sleep 10`)
	p := NewProcessBridge(path, 150*time.Millisecond, zap.NewNop())

	start := time.Now()
	_, err := p.Call(context.Background(), fitRequest())
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 150*time.Millisecond, timeout.Limit)
	assert.Less(t, time.Since(start), 5*time.Second, "the child must be killed, not awaited")
}

func TestProcessBridge_CanceledContext(t *testing.T) {
	path := writeEngineScript(t, `cat > /dev/null
exec sleep 10`)
	p := NewProcessBridge(path, 5*time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := p.Call(ctx, fitRequest())
	require.ErrorIs(t, err, context.Canceled)
	var crash *CrashError
	assert.False(t, errors.As(err, &crash), "a cancellation must not be reported as a crash")
}

func TestProcessBridge_UndecodableOutput(t *testing.T) {
	path := writeEngineScript(t, `cat > /dev/null
echo "Fitting 2 mechanisms..."`)
	p := NewProcessBridge(path, 5*time.Second, zap.NewNop())

	_, err := p.Call(context.Background(), fitRequest())
	var protoErr *wire.ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestProcessBridge_EngineReportedError(t *testing.T) {
	path := writeEngineScript(t, `cat > /dev/null
echo '{"status":"error","error":"graph is not acyclic","traceback":"Traceback..."}'`)
	p := NewProcessBridge(path, 5*time.Second, zap.NewNop())

	_, err := p.Call(context.Background(), fitRequest())
	var reported *EngineReportedError
	require.ErrorAs(t, err, &reported)
	assert.Equal(t, "graph is not acyclic", reported.Message)
	assert.Equal(t, "Traceback...", reported.Traceback)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate([]byte("abc"), 5))
	assert.Equal(t, "ab... (truncated)", truncate([]byte("abcdef"), 2))
}
