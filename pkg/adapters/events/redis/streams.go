package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/example-app/pkg/adapters/events"
)

// streamPrefix namespaces request event streams in a shared Redis
const streamPrefix = "example-app:events:"

// StreamsEventBus implements events.Bus using Redis Streams.
// Subscribers read with XREAD from the entry that was newest when they
// subscribed, so every subscriber sees every event published after that.
type StreamsEventBus struct {
	client *redis.Client
	logger *zap.Logger
	maxLen int64

	readers atomic.Int32
}

// NewStreamsEventBus creates a new Redis Streams event bus.
// maxLen bounds each stream with approximate trimming; 0 disables trimming.
func NewStreamsEventBus(client *redis.Client, maxLen int64, logger *zap.Logger) *StreamsEventBus {
	return &StreamsEventBus{
		client: client,
		logger: logger,
		maxLen: maxLen,
	}
}

// Publish appends an event to the topic's stream
func (e *StreamsEventBus) Publish(ctx context.Context, topic string, event events.RequestEvent) error {
	streamKey := getStreamKey(topic)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}
	if e.maxLen > 0 {
		args.MaxLen = e.maxLen
		args.Approx = true
	}

	if _, err := e.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	e.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("topic", topic),
		zap.String("stream", streamKey))

	return nil
}

// Subscribe starts reading new entries of the topic's stream until ctx is cancelled.
// The read position is pinned before Subscribe returns, so an event published
// right after it is not missed.
func (e *StreamsEventBus) Subscribe(ctx context.Context, topic string, handler events.Handler) error {
	streamKey := getStreamKey(topic)

	lastID, err := e.tailID(ctx, streamKey)
	if err != nil {
		return err
	}

	e.logger.Debug("subscribed to event stream",
		zap.String("stream", streamKey),
		zap.String("topic", topic),
		zap.String("from_id", lastID))

	e.readers.Add(1)
	go e.readStream(ctx, streamKey, lastID, handler)

	return nil
}

// tailID returns the ID of the newest entry of a stream, or 0-0 when it is empty
func (e *StreamsEventBus) tailID(ctx context.Context, streamKey string) (string, error) {
	entries, err := e.client.XRevRangeN(ctx, streamKey, "+", "-", 1).Result()
	if err != nil {
		return "", fmt.Errorf("failed to read stream tail: %w", err)
	}
	if len(entries) == 0 {
		return "0-0", nil
	}
	return entries[0].ID, nil
}

// readStream reads events from a stream after lastID
func (e *StreamsEventBus) readStream(ctx context.Context, streamKey, lastID string, handler events.Handler) {
	defer e.readers.Add(-1)

	for {
		if ctx.Err() != nil {
			return
		}

		streams, err := e.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{streamKey, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			e.logger.Error("failed to read from stream",
				zap.String("stream", streamKey),
				zap.Error(err))

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				lastID = message.ID
				e.processMessage(ctx, streamKey, message, handler)
			}
		}
	}
}

// activeReaders returns the number of running subscription loops
func (e *StreamsEventBus) activeReaders() int {
	return int(e.readers.Load())
}

// processMessage decodes a single stream entry and hands it to handler
func (e *StreamsEventBus) processMessage(ctx context.Context, streamKey string, message redis.XMessage, handler events.Handler) {
	event, err := decodeMessage(message)
	if err != nil {
		e.logger.Error("invalid stream message",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
		return
	}

	if err := handler(ctx, event); err != nil {
		e.logger.Warn("handler error",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
	}
}

// Close is a no-op; the Redis client is owned and closed by the caller
func (e *StreamsEventBus) Close() error {
	return nil
}

func decodeMessage(message redis.XMessage) (events.RequestEvent, error) {
	var event events.RequestEvent

	data, ok := message.Values["data"].(string)
	if !ok {
		return event, fmt.Errorf("message %s has no data field", message.ID)
	}

	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return event, nil
}

// getStreamKey returns the Redis stream key for a topic
func getStreamKey(topic string) string {
	return streamPrefix + topic
}
