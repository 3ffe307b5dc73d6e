package publisher

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthMonitor monitors publisher health
type HealthMonitor struct {
	pool     *Pool
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// HealthStatus represents the health status of the publisher pool
type HealthStatus struct {
	TotalWorkers   int
	IdleWorkers    int
	BusyWorkers    int
	StoppedWorkers int
	QueueDepth     int
	QueueCapacity  int
	LastPublish    time.Time
	Healthy        bool
	Timestamp      time.Time
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(pool *Pool, interval time.Duration, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		pool:     pool,
		interval: interval,
		logger:   logger,
	}
}

// Start starts the health monitor
func (h *HealthMonitor) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return
	}
	h.running = true
	h.stopCh = make(chan struct{})

	go h.run(h.stopCh)
}

// Stop stops the health monitor
func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}
	h.running = false
	close(h.stopCh)
}

// run is the main health monitoring loop
func (h *HealthMonitor) run(stopCh <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			h.checkHealth()
		}
	}
}

// checkHealth records publisher status and logs when it degrades
func (h *HealthMonitor) checkHealth() {
	status := h.GetStatus()

	h.logger.Debug("event publisher health check",
		zap.Int("total", status.TotalWorkers),
		zap.Int("idle", status.IdleWorkers),
		zap.Int("busy", status.BusyWorkers),
		zap.Int("stopped", status.StoppedWorkers),
		zap.Int("queue_depth", status.QueueDepth),
		zap.Time("last_publish", status.LastPublish),
		zap.Bool("healthy", status.Healthy))

	h.pool.metrics.RecordPublisherStatus(
		status.IdleWorkers,
		status.BusyWorkers,
		status.StoppedWorkers,
	)
	h.pool.metrics.SetQueueDepth(status.QueueDepth)

	if !status.Healthy {
		h.logger.Warn("event publisher is unhealthy",
			zap.Int("stopped", status.StoppedWorkers),
			zap.Int("queue_depth", status.QueueDepth),
			zap.Int("queue_capacity", status.QueueCapacity))
	}
}

// GetStatus returns the current health status
func (h *HealthMonitor) GetStatus() *HealthStatus {
	workerStatuses := h.pool.GetStatus()

	var idle, busy, stopped int
	for _, status := range workerStatuses {
		switch status {
		case WorkerStatusIdle:
			idle++
		case WorkerStatusBusy:
			busy++
		case WorkerStatusStopped:
			stopped++
		}
	}

	depth := h.pool.QueueDepth()

	return &HealthStatus{
		TotalWorkers:   len(workerStatuses),
		IdleWorkers:    idle,
		BusyWorkers:    busy,
		StoppedWorkers: stopped,
		QueueDepth:     depth,
		QueueCapacity:  h.pool.capacity,
		LastPublish:    h.pool.LastPublish(),
		Healthy:        stopped == 0 && depth < h.pool.capacity,
		Timestamp:      time.Now(),
	}
}

// IsHealthy returns true if the publisher pool is healthy
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetStatus().Healthy
}

// Health returns the pool's health monitor
func (p *Pool) Health() *HealthMonitor {
	return p.health
}
