package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/jsgate/internal/gateway"
	"github.com/GriffinCanCode/jsgate/internal/supervisor"
)

func executeCommand(args ...string) (string, string, error) {
	root := newRootCmd()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeScript(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestCLIHelp(t *testing.T) {
	out, _, err := executeCommand("--help")
	require.NoError(t, err)

	for _, phrase := range []string{"jsgate", "eval", "call", "repl", "serve", "--preload"} {
		assert.Contains(t, out, phrase)
	}
}

func TestCLIEvalInline(t *testing.T) {
	out, _, err := executeCommand("eval", "-c", "[1, 2, 3].map(n => n * 2)")
	require.NoError(t, err)
	assert.Equal(t, "[2,4,6]\n", out)
}

func TestCLIEvalFile(t *testing.T) {
	path := writeScript(t, "script.js", "({answer: 6 * 7})")

	out, _, err := executeCommand("eval", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer": 42}`, out)
}

func TestCLIEvalStdin(t *testing.T) {
	root := newRootCmd()
	stdout := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader("'from' + ' stdin'"))
	root.SetArgs([]string{"eval"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "\"from stdin\"\n", stdout.String())
}

func TestCLIEvalUndefinedPrintsNull(t *testing.T) {
	out, _, err := executeCommand("eval", "-c", "undefined")
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)
}

func TestCLIEvalPreload(t *testing.T) {
	path := writeScript(t, "base.js", "globalThis.x = 41;")

	out, _, err := executeCommand("eval", "--preload", path, "-c", "x + 1")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestCLIEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no code", args: []string{"eval"}, want: "no code given"},
		{name: "thrown", args: []string{"eval", "-c", "throw new Error('boom')"}, want: "boom"},
		{name: "timeout", args: []string{"eval", "--timeout", "50ms", "-c", "while(true){}"}, want: "evaluation timed out"},
		{name: "function result", args: []string{"eval", "-c", "(function() {})"}, want: "no conversion handler"},
		{name: "nan result", args: []string{"eval", "-c", "NaN"}, want: "not representable as JSON"},
		{name: "missing preload", args: []string{"eval", "--preload", "/nonexistent/*.js", "-c", "1"}, want: "/nonexistent/*.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := executeCommand(tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestCLICall(t *testing.T) {
	path := writeScript(t, "lib.js", `
function add(a, b) { return a + b; }
function describe(name, opts) { return {name: name, loud: opts.loud}; }
`)

	out, _, err := executeCommand("call", "--preload", path, "add", "40", "2")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)

	out, _, err = executeCommand("call", "--preload", path, "describe", "bare-word", `{"loud": true}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "bare-word", "loud": true}`, out)

	_, _, err = executeCommand("call", "--preload", path, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")

	_, _, err = executeCommand("call")
	require.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	got := parseArgs([]string{"1", "2.5", `"s"`, "true", "null", "[1]", `{"a": 1}`, "word"})
	assert.Equal(t, []any{1.0, 2.5, "s", true, nil, []any{1.0}, map[string]any{"a": 1.0}, "word"}, got)
}

type scriptedReader struct {
	lines   []string
	prompts []string
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	if line == "^C" {
		return "", readline.ErrInterrupt
	}
	return line, nil
}

func (r *scriptedReader) SetPrompt(prompt string) {
	r.prompts = append(r.prompts, prompt)
}

func runScripted(t *testing.T, lines ...string) (string, string, *scriptedReader) {
	t.Helper()

	gw, err := gateway.New(gateway.WithPreload("base.js", "globalThis.x = 41;"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	rl := &scriptedReader{lines: lines}
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	require.NoError(t, repl(context.Background(), rl, gw, time.Second, stdout, stderr))
	return stdout.String(), stderr.String(), rl
}

func TestREPLKeepsState(t *testing.T) {
	out, errOut, _ := runScripted(t, "var y = x + 1", "y", "", "exit", "ignored")
	assert.Equal(t, "null\n42\n", out)
	assert.Empty(t, errOut)
}

func TestREPLMultiLine(t *testing.T) {
	out, _, rl := runScripted(t, "[1,\\", "2,\\", "3]")
	assert.Equal(t, "[1,2,3]\n\n", out)
	assert.Equal(t, []string{promptMore, promptMore, promptMain}, rl.prompts)
}

func TestREPLInterruptDropsPending(t *testing.T) {
	out, _, rl := runScripted(t, "1 +\\", "^C", "2")
	assert.Equal(t, "2\n\n", out)
	assert.Equal(t, []string{promptMore, promptMain}, rl.prompts)
}

func TestREPLErrorsAndReset(t *testing.T) {
	out, errOut, _ := runScripted(t,
		"throw new Error('bad')",
		"globalThis.x = 1",
		".reset",
		"x",
	)
	assert.Equal(t, "1\n41\n\n", out)
	assert.Contains(t, errOut, "bad")
}

func TestREPLTimeoutRecovers(t *testing.T) {
	gw, err := gateway.New(gateway.WithPreload("base.js", "globalThis.x = 41;"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	rl := &scriptedReader{lines: []string{"while(true){}", "x"}}
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	require.NoError(t, repl(context.Background(), rl, gw, 50*time.Millisecond, stdout, stderr))

	assert.Contains(t, stderr.String(), "evaluation timed out")
	assert.Equal(t, "41\n\n", stdout.String())
	assert.Equal(t, supervisor.StateReady, gw.State())
}

func TestLoadServeConfig(t *testing.T) {
	path := writeScript(t, "jsgate.yaml", `
server:
  port: "9000"
engine:
  preload: ["lib/*.js"]
  default_timeout: 2s
`)

	cmd := newRootCmd()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	require.NoError(t, serve.ParseFlags([]string{"--config", path, "--preload", "extra.js", "--port", "9100"}))

	cfg, err := loadServeConfig(serve)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, []string{"lib/*.js", "extra.js"}, cfg.Engine.Preload)
	assert.Equal(t, 2*time.Second, cfg.Engine.DefaultTimeout.Duration)
}
