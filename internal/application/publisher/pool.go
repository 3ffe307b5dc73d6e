package publisher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/example-app/internal/errors"
	"github.com/aescanero/example-app/pkg/adapters/events"
)

// MetricsRecorder is the subset of the metrics collector used by the pool
type MetricsRecorder interface {
	IncEventsPublished()
	IncEventsDropped()
	IncEventsFailed()
	SetQueueDepth(depth int)
	RecordPublisherStatus(idle, busy, stopped int)
}

// Pool manages a pool of publisher goroutines
type Pool struct {
	size     int
	bus      events.Bus
	metrics  MetricsRecorder
	logger   *zap.Logger
	health   *HealthMonitor
	queue    chan events.RequestEvent
	capacity int

	workers []*worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	started bool
	stopped bool
}

// worker represents a single publisher goroutine
type worker struct {
	id      string
	pool    *Pool
	status  WorkerStatus
	mu      sync.RWMutex
	// lastJob is when the worker last took an event; zero until then
	lastJob time.Time
}

// WorkerStatus represents worker status
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBusy    WorkerStatus = "busy"
	WorkerStatusStopped WorkerStatus = "stopped"
)

// NewPool creates a new publisher pool
func NewPool(
	size int,
	queueSize int,
	bus events.Bus,
	metrics MetricsRecorder,
	logger *zap.Logger,
	healthCheckInterval time.Duration,
) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		size:     size,
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
		queue:    make(chan events.RequestEvent, queueSize),
		capacity: queueSize,
		workers:  make([]*worker, size),
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < size; i++ {
		pool.workers[i] = &worker{
			id:     fmt.Sprintf("publisher-%d", i),
			pool:   pool,
			status: WorkerStatusStopped,
		}
	}

	pool.health = NewHealthMonitor(pool, healthCheckInterval, logger)

	return pool
}

// Start starts the publisher pool
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}
	if p.stopped {
		return errors.ErrPublisherStopped
	}
	p.started = true

	p.logger.Info("starting event publisher", zap.Int("size", p.size), zap.Int("queue", p.capacity))

	for _, w := range p.workers {
		w.setStatus(WorkerStatusIdle)
		p.wg.Add(1)
		go w.run()
	}

	p.health.Start()

	return nil
}

// Enqueue hands an event to the pool without blocking
func (p *Pool) Enqueue(event events.RequestEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return errors.ErrPublisherStopped
	}

	select {
	case p.queue <- event:
		return nil
	default:
		p.metrics.IncEventsDropped()
		return errors.ErrQueueFull
	}
}

// Shutdown stops accepting events and drains the queue until ctx expires
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.logger.Info("shutting down event publisher", zap.Int("pending", len(p.queue)))

	p.health.Stop()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("event publisher shut down complete")
		return nil
	case <-ctx.Done():
		// abort in-flight publishes
		p.cancel()
		return errors.ErrShutdownTimeout
	}
}

// QueueDepth returns the number of events waiting to be published
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// LastPublish returns when any worker last took an event, zero if none has
func (p *Pool) LastPublish() time.Time {
	var last time.Time
	for _, w := range p.workers {
		w.mu.RLock()
		if w.lastJob.After(last) {
			last = w.lastJob
		}
		w.mu.RUnlock()
	}
	return last
}

// GetStatus returns the status of all workers
func (p *Pool) GetStatus() map[string]WorkerStatus {
	status := make(map[string]WorkerStatus, len(p.workers))
	for _, w := range p.workers {
		w.mu.RLock()
		status[w.id] = w.status
		w.mu.RUnlock()
	}
	return status
}

// run is the main worker loop; it returns once the queue is closed and drained
func (w *worker) run() {
	defer w.pool.wg.Done()
	defer w.setStatus(WorkerStatusStopped)

	for event := range w.pool.queue {
		w.publish(event)
	}
}

// publish sends a single event to the bus
func (w *worker) publish(event events.RequestEvent) {
	w.mu.Lock()
	w.status = WorkerStatusBusy
	w.lastJob = time.Now()
	w.mu.Unlock()

	defer w.setStatus(WorkerStatusIdle)

	if err := w.pool.bus.Publish(w.pool.ctx, events.TopicRequests, event); err != nil {
		w.pool.metrics.IncEventsFailed()
		w.pool.logger.Warn("failed to publish request event",
			zap.String("worker_id", w.id),
			zap.String("event_id", event.ID),
			zap.Error(err))
		return
	}

	w.pool.metrics.IncEventsPublished()
}

func (w *worker) setStatus(status WorkerStatus) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
}
