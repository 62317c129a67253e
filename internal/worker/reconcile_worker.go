package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	"github.com/Pesokrava/park_reviewer/internal/pkg/observability"
)

const (
	// Debounce window - collect events for same review within this duration
	debounceWindow = 1 * time.Second

	// Retry configuration
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond

	fetchBatch   = 10
	fetchMaxWait = 5 * time.Second
)

// LikesReconciler corrects the likes_count of one review
type LikesReconciler interface {
	Reconcile(ctx context.Context, reviewID uuid.UUID) (bool, error)
	ReconcileAll(ctx context.Context) (int64, error)
}

// MessageFetcher pulls batches from a durable JetStream consumer
type MessageFetcher interface {
	Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error)
}

// ReconcileWorker reconciles likes_count of reviews named by like events, debounced per review
type ReconcileWorker struct {
	reconciler LikesReconciler
	metrics    *observability.Metrics
	logger     *logger.Logger

	mu             sync.Mutex
	pendingUpdates map[uuid.UUID]*pendingUpdate
	shutdownCh     chan struct{}
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
}

type pendingUpdate struct {
	reviewID  uuid.UUID
	timestamp time.Time
	timer     *time.Timer
}

// NewReconcileWorker creates a new reconcile worker
func NewReconcileWorker(reconciler LikesReconciler, metrics *observability.Metrics, logger *logger.Logger) *ReconcileWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &ReconcileWorker{
		reconciler:     reconciler,
		metrics:        metrics,
		logger:         logger,
		pendingUpdates: make(map[uuid.UUID]*pendingUpdate),
		shutdownCh:     make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// HandleEvent processes a like event
func (w *ReconcileWorker) HandleEvent(data []byte) error {
	var event domain.LikeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal like event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.ReviewID == uuid.Nil {
		return fmt.Errorf("like event without review_id")
	}

	w.logger.WithFields(map[string]any{
		"type":      event.EventType,
		"review_id": event.ReviewID.String(),
		"timestamp": event.Timestamp,
	}).Debug("Received like event")

	w.scheduleUpdate(event.ReviewID, event.Timestamp)

	return nil
}

// scheduleUpdate debounces: many events for one review within the window result in a single reconcile
func (w *ReconcileWorker) scheduleUpdate(reviewID uuid.UUID, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	existing, found := w.pendingUpdates[reviewID]

	if found {
		if timestamp.Before(existing.timestamp) {
			w.logger.WithFields(map[string]any{
				"review_id":   reviewID.String(),
				"existing_ts": existing.timestamp,
				"event_ts":    timestamp,
			}).Debug("Ignoring stale event")
			return
		}

		// A timer that already fired owns its wg slot and will remove itself
		if !existing.timer.Stop() {
			w.wg.Add(1)
		}
	} else {
		w.wg.Add(1)
	}

	update := &pendingUpdate{
		reviewID:  reviewID,
		timestamp: timestamp,
	}
	update.timer = time.AfterFunc(debounceWindow, func() {
		w.processUpdate(update)
	})

	w.pendingUpdates[reviewID] = update
}

// processUpdate reconciles one review with retry and exponential backoff
func (w *ReconcileWorker) processUpdate(update *pendingUpdate) {
	defer w.wg.Done()

	reviewID := update.reviewID

	w.mu.Lock()
	if w.pendingUpdates[reviewID] == update {
		delete(w.pendingUpdates, reviewID)
	}
	w.mu.Unlock()

	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]any{
				"review_id":  reviewID.String(),
				"attempt":    attempt + 1,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying likes reconcile")

			select {
			case <-time.After(backoff):
			case <-w.ctx.Done():
				w.logger.Info("Worker context cancelled, aborting retry")
				return
			}

			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(w.ctx, 5*time.Second)
		corrected, err := w.reconciler.Reconcile(ctx, reviewID)
		cancel()

		if err == nil {
			if corrected {
				w.metrics.RecordReconciled(w.ctx, 1)
			}
			return
		}

		lastErr = err
		w.logger.WithFields(map[string]any{
			"review_id": reviewID.String(),
			"attempt":   attempt + 1,
		}).Error("Failed to reconcile likes count", err)
	}

	w.logger.WithFields(map[string]any{
		"review_id":   reviewID.String(),
		"max_retries": maxRetries,
	}).Error("Likes reconcile failed after all retries", lastErr)
}

// GetPendingCount returns the number of reviews waiting for their debounce window
func (w *ReconcileWorker) GetPendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pendingUpdates)
}

// Run pulls like events until ctx is done. Events that cannot be parsed are
// nacked and redelivered by JetStream until MaxDeliver.
func (w *ReconcileWorker) Run(ctx context.Context, sub MessageFetcher) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := sub.Fetch(fetchBatch, nats.MaxWait(fetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("Failed to fetch messages from JetStream", err)

			select {
			case <-time.After(fetchMaxWait):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, msg := range msgs {
			if err := w.HandleEvent(msg.Data); err != nil {
				if nackErr := msg.Nak(); nackErr != nil {
					w.logger.Warnf("Failed to NACK message: %v", nackErr)
				}
				continue
			}

			if ackErr := msg.Ack(); ackErr != nil {
				w.logger.Warnf("Failed to ACK message: %v", ackErr)
			}
		}
	}
}

// RunSweep reconciles every review on each tick until ctx is done
func (w *ReconcileWorker) RunSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one full reconciliation pass
func (w *ReconcileWorker) Sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	corrected, err := w.reconciler.ReconcileAll(sweepCtx)
	if err != nil {
		w.logger.Error("Periodic likes sweep failed", err)
		return
	}

	w.metrics.RecordReconciled(ctx, corrected)
	w.logger.WithFields(map[string]any{
		"corrected": corrected,
	}).Info("Periodic likes sweep finished")
}

// Shutdown gracefully shuts down the worker
// Cancels pending timers and waits for in-flight updates to complete
func (w *ReconcileWorker) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down reconcile worker...")

	w.mu.Lock()
	close(w.shutdownCh)
	w.mu.Unlock()

	w.cancel()

	w.mu.Lock()
	cancelled := 0
	for _, update := range w.pendingUpdates {
		if update.timer.Stop() {
			w.wg.Done()
			cancelled++
		}
	}
	w.pendingUpdates = make(map[uuid.UUID]*pendingUpdate)
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"cancelled_updates": cancelled,
	}).Info("Cancelled pending updates")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight updates completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}
