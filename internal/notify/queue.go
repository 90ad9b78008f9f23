package notify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/metrics"
)

// Queue moves envelopes off the request goroutine
type Queue interface {
	// Enqueue never blocks. It returns false when the push was dropped.
	Enqueue(env Envelope) bool
	// Run processes envelopes until ctx is cancelled
	Run(ctx context.Context)
}

// WorkerQueue delivers envelopes in-process with a fixed pool of workers
type WorkerQueue struct {
	ch        chan Envelope
	workers   int
	deliverer Deliverer
	metrics   *metrics.Metrics
	logger    *logrus.Logger
}

// NewWorkerQueue creates a queue holding up to buffer pending envelopes
func NewWorkerQueue(deliverer Deliverer, workers, buffer int, m *metrics.Metrics, logger *logrus.Logger) *WorkerQueue {
	if workers < 1 {
		workers = 1
	}
	return &WorkerQueue{
		ch:        make(chan Envelope, buffer),
		workers:   workers,
		deliverer: deliverer,
		metrics:   m,
		logger:    logger,
	}
}

func (q *WorkerQueue) Enqueue(env Envelope) bool {
	select {
	case q.ch <- env:
		return true
	default:
		q.metrics.PushDropped.Inc()
		q.logger.WithField("recipient_id", env.RecipientID).Warn("Push queue full, dropping notification push")
		return false
	}
}

// Run starts the workers and blocks until ctx is cancelled and every worker returned
func (q *WorkerQueue) Run(ctx context.Context) {
	q.logger.Infof("Push queue started with %d workers", q.workers)

	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(ctx)
		}()
	}
	wg.Wait()

	q.logger.Info("Push queue stopped")
}

func (q *WorkerQueue) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-q.ch:
			deliver(ctx, q.deliverer, env, q.logger)
		}
	}
}

// deliver runs one delivery, logging instead of surfacing failures
func deliver(ctx context.Context, deliverer Deliverer, env Envelope, logger *logrus.Logger) {
	if err := deliverer.Deliver(ctx, env); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"recipient_id":    env.RecipientID,
			"notification_id": env.Message.ID,
		}).Warn("Failed to push notification")
	}
}
