package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/jsgate/internal/codec"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(DefaultOptions(), zap.NewNop())
	require.NoError(t, err)
	return eng
}

func TestRunReturnsCompletionValue(t *testing.T) {
	eng := newTestEngine(t)

	got, err := eng.Run("<eval>", "1 + 1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	got, err = eng.Run("<eval>", "({a: [1, 'b']})")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": []any{int64(1), "b"}}, got)
}

func TestRunKeepsGlobalState(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Run("prelude", "function echo(x) { return x }; var counter = 0")
	require.NoError(t, err)

	got, err := eng.Run("<eval>", "counter += 1; echo(counter)")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestRunFailureKinds(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		kind    FailureKind
		message string
	}{
		{name: "syntax", code: "function (", kind: FailureSyntax},
		{name: "throw", code: "throw new Error('bad thing')", kind: FailureException, message: "bad thing"},
		{name: "reference", code: "missingFunction()", kind: FailureException, message: "missingFunction"},
		{name: "rejection", code: "Promise.reject(new Error('async failure')); 1", kind: FailureRejection, message: "async failure"},
		{name: "stack overflow", code: "function f() { return f() }; f()", kind: FailureException},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, err := New(Options{MaxCallStackSize: 256}, zap.NewNop())
			require.NoError(t, err)

			_, err = eng.Run("script.js", tt.code)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrExecution))

			var execErr *ExecutionError
			require.True(t, errors.As(err, &execErr))
			assert.Equal(t, tt.kind, execErr.Kind)
			assert.Equal(t, "script.js", execErr.Script)
			if tt.message != "" {
				assert.Contains(t, execErr.Message, tt.message)
			}
		})
	}
}

func TestRunHandledRejectionSucceeds(t *testing.T) {
	eng := newTestEngine(t)

	got, err := eng.Run("<eval>", "Promise.reject(1).catch(function() {}); 'ok'")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestRunConversionError(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Run("<eval>", "(function() {})")
	require.Error(t, err)
	assert.True(t, errors.Is(err, codec.ErrConversion))
	assert.False(t, errors.Is(err, ErrExecution))
}

func TestRunThrowingGetterIsExecutionError(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Run("<eval>", "({get x() { throw new Error('getter') }})")
	require.Error(t, err)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, FailureException, execErr.Kind)
	assert.Contains(t, execErr.Message, "getter")
}

func TestInterrupterTerminatesLoop(t *testing.T) {
	eng := newTestEngine(t)
	stop := eng.Interrupter()

	time.AfterFunc(50*time.Millisecond, stop.Terminate)

	_, err := eng.Run("<eval>", "while (true) {}")
	require.Error(t, err)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, FailureInterrupted, execErr.Kind)
	assert.True(t, errors.Is(err, ErrTerminated))

	// Repeated termination is harmless.
	stop.Terminate()
	stop.Terminate()
}

func TestRunAfterClose(t *testing.T) {
	eng := newTestEngine(t)
	eng.Close()

	_, err := eng.Run("<eval>", "1")
	assert.Error(t, err)
}

func TestConsoleForwardsToLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	eng, err := New(DefaultOptions(), zap.New(core))
	require.NoError(t, err)

	_, err = eng.Run("<eval>", "console.log('hello', 42); console.error('oops')")
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello 42", entries[0].Message)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "oops", entries[1].Message)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

func TestConsoleDisabled(t *testing.T) {
	eng, err := New(Options{}, nil)
	require.NoError(t, err)

	got, err := eng.Run("<eval>", "typeof console")
	require.NoError(t, err)
	assert.Equal(t, "undefined", got)
}

func TestExecDiscardsCompletionValue(t *testing.T) {
	eng := newTestEngine(t)

	require.NoError(t, eng.Exec("prelude.js", "globalThis.echo = function(...args) { return args }"))

	got, err := eng.Run("<eval>", "echo(1, 'a')")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "a"}, got)

	err = eng.Exec("broken.js", "throw new Error('no')")
	assert.True(t, errors.Is(err, ErrExecution))
}

func TestReadScripts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.js")
	require.NoError(t, os.WriteFile(path, []byte("var lib = 1"), 0o644))

	scripts, err := ReadScripts(path)
	require.NoError(t, err)
	assert.Equal(t, []Script{{Name: path, Source: "var lib = 1"}}, scripts)

	_, err = ReadScripts(filepath.Join(dir, "missing.js"))
	assert.Error(t, err)
}
