package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/jsgate/internal/engine"
)

type recordingObserver struct {
	mu       sync.Mutex
	inits    int
	discards []string
}

func (o *recordingObserver) EngineInitialized() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inits++
}

func (o *recordingObserver) EngineDiscarded(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.discards = append(o.discards, reason)
}

func newSupervisor(t *testing.T, preload ...engine.Script) (*Supervisor, *recordingObserver) {
	t.Helper()

	obs := &recordingObserver{}
	sup, err := New(Config{
		Preload:  preload,
		Engine:   engine.DefaultOptions(),
		Observer: obs,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sup.Close() })
	return sup, obs
}

func TestEvalUnbounded(t *testing.T) {
	sup, _ := newSupervisor(t)

	got, err := sup.Eval(context.Background(), "1 + 1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
	assert.Equal(t, StateReady, sup.State())
}

func TestEvalWithinTimeout(t *testing.T) {
	sup, obs := newSupervisor(t)

	got, err := sup.Eval(context.Background(), "'fast'", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "fast", got)
	assert.Equal(t, StateReady, sup.State())
	assert.Empty(t, obs.discards)
}

func TestEvalTimeoutDiscardsEngine(t *testing.T) {
	sup, obs := newSupervisor(t)

	start := time.Now()
	_, err := sup.Eval(context.Background(), "while(true){}", 50*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
	assert.Equal(t, "evaluation timed out", err.Error())

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, StateUninitialized, sup.State())
	assert.Equal(t, []string{DiscardTimeout}, obs.discards)

	got, err := sup.Eval(context.Background(), "1+1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
	assert.Equal(t, StateReady, sup.State())
	assert.Equal(t, 2, obs.inits)
}

func TestTimeoutWhileConvertingResult(t *testing.T) {
	sup, obs := newSupervisor(t)

	// The script completes; the getter only runs while its result is read.
	_, err := sup.Eval(context.Background(), "({get x() { while(true){} }})", 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, StateUninitialized, sup.State())
	assert.Equal(t, []string{DiscardTimeout}, obs.discards)

	got, err := sup.Eval(context.Background(), "1+1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
	assert.Equal(t, StateReady, sup.State())
}

func TestPreloadReplayedAfterTimeout(t *testing.T) {
	sup, _ := newSupervisor(t, engine.Script{Name: "prelude.js", Source: "globalThis.x = 41;"})

	got, err := sup.Eval(context.Background(), "x+1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	// State mutated by eval does not survive the rebuild.
	_, err = sup.Eval(context.Background(), "globalThis.y = 1; x = 0", 0)
	require.NoError(t, err)

	_, err = sup.Eval(context.Background(), "for(;;){}", 50*time.Millisecond)
	require.True(t, errors.Is(err, ErrTimeout))

	got, err = sup.Eval(context.Background(), "x+1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	got, err = sup.Eval(context.Background(), "typeof y", 0)
	require.NoError(t, err)
	assert.Equal(t, "undefined", got)
}

func TestPreloadFailureFailsConstruction(t *testing.T) {
	_, err := New(Config{
		Preload: []engine.Script{
			{Name: "ok.js", Source: "var a = 1"},
			{Name: "bad.js", Source: "throw new Error('broken preload')"},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrExecution))
	assert.Contains(t, err.Error(), "bad.js")
}

func TestGuestErrorKeepsEngine(t *testing.T) {
	sup, obs := newSupervisor(t)

	_, err := sup.Eval(context.Background(), "var kept = 7; throw new Error('boom')", time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrExecution))
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, StateReady, sup.State())
	assert.Empty(t, obs.discards)

	got, err := sup.Eval(context.Background(), "kept", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
}

func TestEvalContextCancellation(t *testing.T) {
	sup, obs := newSupervisor(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := sup.Eval(ctx, "while(true){}", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, StateUninitialized, sup.State())
	assert.Equal(t, []string{DiscardCancelled}, obs.discards)
}

func TestEvalAlreadyCancelledContext(t *testing.T) {
	sup, obs := newSupervisor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sup.Eval(ctx, "1", 0)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StateReady, sup.State())
	assert.Empty(t, obs.discards)
}

func TestReset(t *testing.T) {
	sup, obs := newSupervisor(t)

	_, err := sup.Eval(context.Background(), "var v = 1", 0)
	require.NoError(t, err)

	require.NoError(t, sup.Reset())
	assert.Equal(t, StateUninitialized, sup.State())
	assert.Equal(t, []string{DiscardReset}, obs.discards)

	got, err := sup.Eval(context.Background(), "typeof v", 0)
	require.NoError(t, err)
	assert.Equal(t, "undefined", got)
}

func TestClose(t *testing.T) {
	sup, _ := newSupervisor(t)

	require.NoError(t, sup.Close())
	require.NoError(t, sup.Close())
	assert.Equal(t, StateClosed, sup.State())

	_, err := sup.Eval(context.Background(), "1", 0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, sup.Reset(), ErrClosed)
}

func TestConcurrentEvalsAreSerialized(t *testing.T) {
	sup, _ := newSupervisor(t, engine.Script{Name: "counter.js", Source: "var n = 0"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sup.Eval(context.Background(), "n++", time.Second)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := sup.Eval(context.Background(), "n", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got)
}

type countingInterrupter struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInterrupter) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

func TestWatchDoneWins(t *testing.T) {
	stop := &countingInterrupter{}
	done := make(chan struct{}, 1)
	verdicts := make(chan verdict, 1)

	done <- struct{}{}
	watch(context.Background(), stop, time.Hour, done, verdicts)

	assert.Equal(t, completed, <-verdicts)
	assert.Equal(t, 0, stop.calls)
}

func TestWatchTimerFires(t *testing.T) {
	stop := &countingInterrupter{}
	done := make(chan struct{}, 1)
	verdicts := make(chan verdict, 1)

	watch(context.Background(), stop, time.Millisecond, done, verdicts)

	assert.Equal(t, timedOut, <-verdicts)
	assert.Equal(t, 1, stop.calls)
}

func TestWatchCancelled(t *testing.T) {
	stop := &countingInterrupter{}
	done := make(chan struct{}, 1)
	verdicts := make(chan verdict, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	watch(ctx, stop, 0, done, verdicts)

	assert.Equal(t, cancelled, <-verdicts)
	assert.Equal(t, 1, stop.calls)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(99).String())
}
