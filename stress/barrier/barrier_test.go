package barrier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalIsIdempotent(t *testing.T) {
	b := New(t.TempDir())

	require.NoError(t, b.Signal(Start))
	require.NoError(t, b.Signal(Start))
	assert.True(t, b.IsSignaled(Start))
}

func TestIsSignaledNonBlocking(t *testing.T) {
	b := New(t.TempDir())

	assert.False(t, b.IsSignaled(Stop))
	require.NoError(t, b.Signal(Stop))
	assert.True(t, b.IsSignaled(Stop))
}

func TestWaitReturnsImmediatelyWhenSet(t *testing.T) {
	b := New(t.TempDir())
	require.NoError(t, b.Signal(Start))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, b.Wait(ctx, Start))
}

func TestWaitBlocksUntilSignaled(t *testing.T) {
	dir := t.TempDir()
	waiter := New(dir)
	signaler := New(dir) // separate handle, as a separate process would hold

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = signaler.Signal(Start)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, waiter.Wait(ctx, Start))
}

func TestWaitHonorsContext(t *testing.T) {
	b := New(t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := b.Wait(ctx, "never-signaled")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestRendezvousOrdering verifies the two-phase rendezvous: the
// orchestrator side never signals start before observing every worker's
// ready flag.
func TestRendezvousOrdering(t *testing.T) {
	const workers = 8
	dir := t.TempDir()
	orchestrator := New(dir)

	var mu sync.Mutex
	readyTimes := make([]time.Time, workers)
	startTimes := make([]time.Time, workers)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := New(dir)
			// Stagger readiness so the orchestrator really waits.
			time.Sleep(time.Duration(id) * 5 * time.Millisecond)
			require.NoError(t, w.Signal(Ready(id)))
			mu.Lock()
			readyTimes[id] = time.Now()
			mu.Unlock()

			require.NoError(t, w.Wait(ctx, Start))
			mu.Lock()
			startTimes[id] = time.Now()
			mu.Unlock()
		}(i)
	}

	for i := 0; i < workers; i++ {
		require.NoError(t, orchestrator.Wait(ctx, Ready(i)))
	}
	require.NoError(t, orchestrator.Signal(Start))
	wg.Wait()

	var lastReady time.Time
	for i := 0; i < workers; i++ {
		if readyTimes[i].After(lastReady) {
			lastReady = readyTimes[i]
		}
	}
	for i := 0; i < workers; i++ {
		assert.False(t, startTimes[i].Before(lastReady),
			"worker %d observed start before worker readiness completed", i)
	}
}
