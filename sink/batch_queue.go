package sink

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"bookingtrack/api/config"
	"bookingtrack/api/models"
)

// batchQueue buffers events and hands them to deliver in batches from one
// background goroutine. Send never blocks: when the buffer is full the event
// is dropped.
type batchQueue struct {
	cfg     config.SinkConfig
	target  string
	deliver func([]models.AnalyticsEvent) error

	queue chan models.AnalyticsEvent
	done  chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	delivered atomic.Int64
	failed    atomic.Int64
}

func withDefaults(cfg config.SinkConfig) config.SinkConfig {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return cfg
}

func newBatchQueue(cfg config.SinkConfig, target string, deliver func([]models.AnalyticsEvent) error) *batchQueue {
	q := &batchQueue{
		cfg:     cfg,
		target:  target,
		deliver: deliver,
		queue:   make(chan models.AnalyticsEvent, cfg.BufferSize),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *batchQueue) Send(event models.AnalyticsEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("%w: sink closed", ErrSinkUnavailable)
	}
	select {
	case q.queue <- event:
		return nil
	default:
		q.failed.Add(1)
		return fmt.Errorf("%w: buffer full", ErrSinkUnavailable)
	}
}

// Close stops accepting events and waits for the buffered ones to be delivered.
func (q *batchQueue) Close(ctx context.Context) error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.queue)
		q.mu.Unlock()
	})

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delivered and Failed count events, not batches.
func (q *batchQueue) Delivered() int64 { return q.delivered.Load() }

func (q *batchQueue) Failed() int64 { return q.failed.Load() }

func (q *batchQueue) run() {
	defer close(q.done)

	ticker := time.NewTicker(q.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]models.AnalyticsEvent, 0, q.cfg.BatchSize)
	for {
		select {
		case event, ok := <-q.queue:
			if !ok {
				q.flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= q.cfg.BatchSize {
				q.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			q.flush(batch)
			batch = batch[:0]
		}
	}
}

func (q *batchQueue) flush(batch []models.AnalyticsEvent) {
	if len(batch) == 0 {
		return
	}
	if err := q.deliver(batch); err != nil {
		q.failed.Add(int64(len(batch)))
		log.Printf("ERROR: Failed to deliver %d tracking events to %s: %v", len(batch), q.target, err)
		return
	}
	q.delivered.Add(int64(len(batch)))
}
