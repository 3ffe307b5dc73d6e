package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/example-app/pkg/adapters/events"
)

func newTestBus(t *testing.T, maxLen int64) (*StreamsEventBus, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStreamsEventBus(client, maxLen, zap.NewNop()), client
}

type received struct {
	mu     sync.Mutex
	events []events.RequestEvent
}

func (r *received) handler(_ context.Context, event events.RequestEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *received) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.events))
	for _, e := range r.events {
		ids = append(ids, e.ID)
	}
	return ids
}

func Test_StreamsEventBus_FanOut(t *testing.T) {
	bus, _ := newTestBus(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var first, second received
	require.NoError(t, bus.Subscribe(ctx, events.TopicRequests, first.handler))
	require.NoError(t, bus.Subscribe(ctx, events.TopicRequests, second.handler))

	sent := events.RequestEvent{ID: "e1", Method: "GET", Path: "/", Endpoint: "hello", Status: 200}
	require.NoError(t, bus.Publish(ctx, events.TopicRequests, sent))

	for _, r := range []*received{&first, &second} {
		require.Eventually(t, func() bool {
			return len(r.ids()) == 1
		}, 3*time.Second, 20*time.Millisecond)
		assert.Equal(t, []string{"e1"}, r.ids())
	}
}

func Test_StreamsEventBus_SubscriberSkipsEarlierEvents(t *testing.T) {
	bus, _ := newTestBus(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Publish(ctx, events.TopicRequests, events.RequestEvent{ID: "before"}))

	var r received
	require.NoError(t, bus.Subscribe(ctx, events.TopicRequests, r.handler))

	// published before the reader goroutine issues its first XREAD
	require.NoError(t, bus.Publish(ctx, events.TopicRequests, events.RequestEvent{ID: "after"}))

	require.Eventually(t, func() bool {
		return len(r.ids()) == 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"after"}, r.ids())
}

func Test_StreamsEventBus_TrimsStream(t *testing.T) {
	bus, client := newTestBus(t, 5)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(ctx, events.TopicRequests, events.RequestEvent{ID: fmt.Sprintf("e%d", i)}))
	}

	length, err := client.XLen(ctx, getStreamKey(events.TopicRequests)).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, length, int64(5))
	assert.Positive(t, length)
}

func Test_StreamsEventBus_NoTrimWhenMaxLenZero(t *testing.T) {
	bus, client := newTestBus(t, 0)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(ctx, events.TopicRequests, events.RequestEvent{ID: fmt.Sprintf("e%d", i)}))
	}

	length, err := client.XLen(ctx, getStreamKey(events.TopicRequests)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(20), length)
}

func Test_StreamsEventBus_ReaderExitsOnCancel(t *testing.T) {
	bus, _ := newTestBus(t, 0)
	ctx, cancel := context.WithCancel(context.Background())

	var r received
	require.NoError(t, bus.Subscribe(ctx, events.TopicRequests, r.handler))
	assert.Equal(t, 1, bus.activeReaders())

	cancel()

	require.Eventually(t, func() bool {
		return bus.activeReaders() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func Test_StreamsEventBus_PublishError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	bus := NewStreamsEventBus(client, 0, zap.NewNop())

	mr.Close()

	err := bus.Publish(context.Background(), events.TopicRequests, events.RequestEvent{ID: "e1"})
	assert.ErrorContains(t, err, "failed to add to stream")

	err = bus.Subscribe(context.Background(), events.TopicRequests, func(context.Context, events.RequestEvent) error { return nil })
	assert.ErrorContains(t, err, "failed to read stream tail")
}

func Test_getStreamKey(t *testing.T) {
	assert.Equal(t, "example-app:events:requests", getStreamKey("requests"))
}

func Test_decodeMessage(t *testing.T) {
	msg := redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"data": `{"id":"e1","method":"GET","path":"/","endpoint":"hello","status":200,"duration_ms":1.5,"timestamp":"2024-01-02T03:04:05Z"}`,
		},
	}

	ev, err := decodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "e1", ev.ID)
	assert.Equal(t, "hello", ev.Endpoint)
	assert.Equal(t, 200, ev.Status)
	assert.Equal(t, 1.5, ev.DurationMs)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), ev.Timestamp.UTC())
}

func Test_decodeMessage_Invalid(t *testing.T) {
	_, err := decodeMessage(redis.XMessage{ID: "1-0", Values: map[string]interface{}{}})
	assert.Error(t, err)

	_, err = decodeMessage(redis.XMessage{ID: "1-1", Values: map[string]interface{}{"data": "{not json"}})
	assert.Error(t, err)
}
