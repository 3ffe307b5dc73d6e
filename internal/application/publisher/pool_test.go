package publisher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/example-app/internal/errors"
	"github.com/aescanero/example-app/pkg/adapters/events"
	"github.com/aescanero/example-app/pkg/adapters/events/memory"
)

type fakeMetrics struct {
	published atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
	depth     atomic.Int64
	statuses  atomic.Int64
}

func (m *fakeMetrics) IncEventsPublished()     { m.published.Add(1) }
func (m *fakeMetrics) IncEventsDropped()       { m.dropped.Add(1) }
func (m *fakeMetrics) IncEventsFailed()        { m.failed.Add(1) }
func (m *fakeMetrics) SetQueueDepth(depth int) { m.depth.Store(int64(depth)) }
func (m *fakeMetrics) RecordPublisherStatus(idle, busy, stopped int) {
	m.statuses.Add(1)
}

// blockingBus holds every Publish call until release is closed
type blockingBus struct {
	release chan struct{}
	calls   atomic.Int64
}

func (b *blockingBus) Publish(ctx context.Context, _ string, _ events.RequestEvent) error {
	b.calls.Add(1)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blockingBus) Subscribe(context.Context, string, events.Handler) error { return nil }
func (b *blockingBus) Close() error                                            { return nil }

type failingBus struct{}

func (failingBus) Publish(context.Context, string, events.RequestEvent) error {
	return errors.New("unavailable")
}
func (failingBus) Subscribe(context.Context, string, events.Handler) error { return nil }
func (failingBus) Close() error                                            { return nil }

func Test_Pool_PublishesToBus(t *testing.T) {
	bus := memory.NewInMemoryEventBus()
	metrics := &fakeMetrics{}
	pool := NewPool(2, 16, bus, metrics, zap.NewNop(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	require.NoError(t, bus.Subscribe(ctx, events.TopicRequests, func(_ context.Context, ev events.RequestEvent) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.ID)
		return nil
	}))

	require.NoError(t, pool.Start())
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, pool.Enqueue(events.RequestEvent{ID: id}))
	}

	require.NoError(t, pool.Shutdown(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, int64(3), metrics.published.Load())
	assert.Equal(t, int64(0), metrics.dropped.Load())
}

func Test_Pool_DropsWhenQueueFull(t *testing.T) {
	bus := &blockingBus{release: make(chan struct{})}
	metrics := &fakeMetrics{}
	pool := NewPool(1, 1, bus, metrics, zap.NewNop(), time.Hour)
	require.NoError(t, pool.Start())

	// first event occupies the only worker
	require.NoError(t, pool.Enqueue(events.RequestEvent{ID: "1"}))
	require.Eventually(t, func() bool { return bus.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// second fills the queue, third is dropped without blocking
	require.NoError(t, pool.Enqueue(events.RequestEvent{ID: "2"}))

	start := time.Now()
	err := pool.Enqueue(events.RequestEvent{ID: "3"})
	assert.ErrorIs(t, err, errors.ErrQueueFull)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, int64(1), metrics.dropped.Load())

	close(bus.release)
	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int64(2), metrics.published.Load())
}

func Test_Pool_CountsFailures(t *testing.T) {
	metrics := &fakeMetrics{}
	pool := NewPool(1, 4, failingBus{}, metrics, zap.NewNop(), time.Hour)
	require.NoError(t, pool.Start())

	require.NoError(t, pool.Enqueue(events.RequestEvent{ID: "x"}))
	require.NoError(t, pool.Shutdown(context.Background()))

	assert.Equal(t, int64(1), metrics.failed.Load())
	assert.Equal(t, int64(0), metrics.published.Load())
}

func Test_Pool_ShutdownTimeout(t *testing.T) {
	bus := &blockingBus{release: make(chan struct{})}
	pool := NewPool(1, 4, bus, &fakeMetrics{}, zap.NewNop(), time.Hour)
	require.NoError(t, pool.Start())

	require.NoError(t, pool.Enqueue(events.RequestEvent{ID: "stuck"}))
	require.Eventually(t, func() bool { return bus.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, pool.Shutdown(ctx), errors.ErrShutdownTimeout)
}

func Test_Pool_EnqueueAfterShutdown(t *testing.T) {
	pool := NewPool(1, 4, memory.NewInMemoryEventBus(), &fakeMetrics{}, zap.NewNop(), time.Hour)
	require.NoError(t, pool.Start())
	require.NoError(t, pool.Shutdown(context.Background()))

	assert.ErrorIs(t, pool.Enqueue(events.RequestEvent{}), errors.ErrPublisherStopped)
	assert.NoError(t, pool.Shutdown(context.Background()))
	assert.ErrorIs(t, pool.Start(), errors.ErrPublisherStopped)
}

func Test_HealthMonitor_Status(t *testing.T) {
	metrics := &fakeMetrics{}
	pool := NewPool(3, 8, memory.NewInMemoryEventBus(), metrics, zap.NewNop(), 10*time.Millisecond)

	before := pool.Health().GetStatus()
	assert.Equal(t, 3, before.StoppedWorkers)
	assert.False(t, before.Healthy)

	require.NoError(t, pool.Start())

	status := pool.Health().GetStatus()
	assert.Equal(t, 3, status.TotalWorkers)
	assert.Equal(t, 3, status.IdleWorkers)
	assert.Equal(t, 8, status.QueueCapacity)
	assert.True(t, pool.Health().IsHealthy())

	assert.Eventually(t, func() bool { return metrics.statuses.Load() > 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, 3, pool.Health().GetStatus().StoppedWorkers)
}

func Test_HealthMonitor_LastPublish(t *testing.T) {
	pool := NewPool(2, 8, memory.NewInMemoryEventBus(), &fakeMetrics{}, zap.NewNop(), time.Hour)
	require.NoError(t, pool.Start())
	defer func() { _ = pool.Shutdown(context.Background()) }()

	assert.True(t, pool.Health().GetStatus().LastPublish.IsZero())

	before := time.Now()
	require.NoError(t, pool.Enqueue(events.RequestEvent{ID: "e1"}))

	require.Eventually(t, func() bool {
		return !pool.Health().GetStatus().LastPublish.IsZero()
	}, time.Second, 5*time.Millisecond)
	assert.False(t, pool.Health().GetStatus().LastPublish.Before(before))
}
