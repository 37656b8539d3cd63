package outbox

import (
	"context"
	"sync"
	"time"

	"scholarline/internal/domain"
	"scholarline/internal/events"
	"scholarline/internal/repository"
	"scholarline/pkg/logger"
)

// Worker polls the outbox table and publishes pending events to the change
// feed. Rows are retried until maxRetries, then parked as FAILED.
type Worker struct {
	repo       repository.OutboxRepository
	publisher  events.Publisher
	log        *logger.Logger
	interval   time.Duration
	batchSize  int
	maxRetries int
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

func NewWorker(repo repository.OutboxRepository, publisher events.Publisher, log *logger.Logger) *Worker {
	return &Worker{
		repo:       repo,
		publisher:  publisher,
		log:        log,
		interval:   100 * time.Millisecond,
		batchSize:  100,
		maxRetries: 10,
		stopChan:   make(chan struct{}),
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processBatch()
		}
	}
}

func (w *Worker) processBatch() {
	ctx := context.Background()
	pending, err := w.repo.GetPending(ctx, w.batchSize)
	if err != nil {
		if w.log != nil {
			w.log.Errorf("outbox poll failed: %v", err)
		}
		return
	}

	for i := range pending {
		w.processEvent(ctx, &pending[i])
	}
}

func (w *Worker) processEvent(ctx context.Context, row *domain.OutboxEvent) {
	// Prevent duplicate processing across workers.
	if err := w.repo.MarkProcessing(ctx, row.ID); err != nil {
		return
	}

	channels := events.ResolveChannels(row.EventType, []byte(row.Payload))
	env := events.Envelope{
		EventType:   row.EventType,
		AggregateID: row.AggregateID.String(),
		OccurredAt:  row.CreatedAt,
		Payload:     []byte(row.Payload),
	}

	if err := w.publisher.Publish(ctx, channels, env); err != nil {
		if row.RetryCount >= w.maxRetries-1 {
			_ = w.repo.MarkFailed(ctx, row.ID, err.Error())
		} else {
			_ = w.repo.IncrementRetry(ctx, row.ID)
		}
		return
	}

	_ = w.repo.MarkCompleted(ctx, row.ID)
}
