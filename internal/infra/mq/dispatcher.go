package mq

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"locdecoder/internal/observability"
)

// Dispatcher hands payloads to a Producer from a pool of workers so that
// ingestion never waits on the broker.
type Dispatcher struct {
	dataChan    chan Payload
	producer    Producer
	topic       string
	logger      *zap.Logger
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	stopOnce    sync.Once

	// mu orders Dispatch sends before the final drain in Stop.
	mu      sync.RWMutex
	stopped bool
}

func NewDispatcher(producer Producer, topic string, workerCount, buffer int, logger *zap.Logger) *Dispatcher {
	if workerCount <= 0 {
		workerCount = 1
	}
	if buffer <= 0 {
		buffer = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		dataChan:    make(chan Payload, buffer),
		producer:    producer,
		topic:       topic,
		workerCount: workerCount,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.logger.Info("Dispatcher started", zap.Int("workers", d.workerCount))
}

// Stop drains queued payloads, then waits for all workers to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		d.mu.Unlock()

		d.cancel()
		d.wg.Wait()
		d.logger.Info("Dispatcher stopped")
	})
}

// Dispatch queues p without blocking. It reports false when the queue is
// full or the dispatcher is stopped and p was dropped.
func (d *Dispatcher) Dispatch(p Payload) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return false
	}
	select {
	case d.dataChan <- p:
		return true
	default:
		observability.PublishDropped.Inc()
		d.logger.Warn("Dispatcher queue full, dropping payload", zap.String("deviceId", p.DeviceID))
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			d.drain()
			return
		case p := <-d.dataChan:
			d.process(context.Background(), p)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case p := <-d.dataChan:
			d.process(context.Background(), p)
		default:
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, p Payload) {
	if err := d.producer.Produce(ctx, d.topic, p.DeviceID, p); err != nil {
		observability.PublishErrors.Inc()
		d.logger.Error("Dispatcher failed to send payload", zap.Error(err), zap.String("deviceId", p.DeviceID))
	}
}
