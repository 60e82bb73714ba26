package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/jsgate/internal/infrastructure/config"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-base.js"), []byte("globalThis.base = 41;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02-fns.js"), []byte("function inc(n) { return n + 1; }"), 0o644))

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Engine.Preload = []string{filepath.Join(dir, "*.js")}
	cfg.Logging.Development = true
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	srv, err := NewServer(cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "body: %s", w.Body.String())
	return w, decoded
}

func TestServerPreloadAndRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	w, body := post(t, srv.Handler(), "/eval", `{"code": "base + 1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 42.0, body["result"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, body = post(t, srv.Handler(), "/call", `{"function": "inc", "args": [1]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, body["result"])
}

func TestServerTimeoutKeepsPreload(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	w, _ := post(t, srv.Handler(), "/eval", `{"code": "while(true){}", "timeout_ms": 50}`)
	assert.Equal(t, http.StatusRequestTimeout, w.Code)

	w, body := post(t, srv.Handler(), "/eval", `{"code": "base + 1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 42.0, body["result"])
}

func TestServerMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	post(t, srv.Handler(), "/eval", `{"code": "1"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `jsgate_evals_total{op="eval",outcome="success"} 1`)
	assert.Contains(t, w.Body.String(), "jsgate_engine_inits_total 1")
}

func TestServerGzip(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	// large enough to pass the compression size threshold
	req := httptest.NewRequest(http.MethodPost, "/eval", strings.NewReader(`{"code": "'x'.repeat(4096)"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, strings.Repeat("x", 4096), body["result"])
}

func TestServerBreaker(t *testing.T) {
	cfg := testConfig(t)
	cfg.Breaker.Enabled = true
	cfg.Breaker.MaxTimeouts = 1
	cfg.Breaker.Cooldown = config.Duration{Duration: time.Minute}
	srv := newTestServer(t, cfg)

	w, _ := post(t, srv.Handler(), "/eval", `{"code": "for(;;){}", "timeout_ms": 20}`)
	assert.Equal(t, http.StatusRequestTimeout, w.Code)

	w, body := post(t, srv.Handler(), "/eval", `{"code": "1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", body["kind"])
}

func TestServerInvalidPreload(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engine.Preload = []string{filepath.Join(t.TempDir(), "missing-*.js")}

	_, err := NewServer(cfg, logging.NewNop(), nil)
	require.Error(t, err)
}

func TestServerServeAndShutdown(t *testing.T) {
	srv, err := NewServer(testConfig(t), logging.NewNop(), nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	addr := ln.Addr().String()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/stream", nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "eval", "id": "a", "code": "base"}))
	var resp map[string]any
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "result", resp["type"])
	assert.Equal(t, 41.0, resp["result"])
	require.NoError(t, conn.Close())

	res, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}
