package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	"github.com/Pesokrava/park_reviewer/internal/pkg/observability"
)

func setupTestWorker(t *testing.T) (*ReconcileWorker, sqlmock.Sqlmock, *sqlx.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	log := logger.New("test")
	worker := NewReconcileWorker(NewReconciler(sqlxDB, log), observability.NoopMetrics(), log)

	return worker, mock, sqlxDB
}

func likeEvent(t *testing.T, reviewID uuid.UUID, ts time.Time) []byte {
	data, err := json.Marshal(domain.LikeEvent{
		EventType: domain.EventLikeAdded,
		Timestamp: ts,
		ReviewID:  reviewID,
		LikerID:   uuid.New(),
	})
	require.NoError(t, err)
	return data
}

func TestReconcileWorker_HandleEvent_Success(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()

	expectReconcile(mock, reviewID, 0, 1)

	err := worker.HandleEvent(likeEvent(t, reviewID, time.Now()))
	assert.NoError(t, err)
	assert.Equal(t, 1, worker.GetPendingCount())

	time.Sleep(debounceWindow + 100*time.Millisecond)

	assert.Equal(t, 0, worker.GetPendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileWorker_HandleEvent_InvalidJSON(t *testing.T) {
	worker, _, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	err := worker.HandleEvent([]byte(`{invalid json}`))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestReconcileWorker_HandleEvent_MissingReview(t *testing.T) {
	worker, _, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	err := worker.HandleEvent([]byte(`{"event_type":"like.added"}`))

	assert.Error(t, err)
	assert.Equal(t, 0, worker.GetPendingCount())
}

func TestReconcileWorker_Debouncing_MultipleEvents(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()

	// Only one reconcile despite a burst of toggles
	expectReconcile(mock, reviewID, 2, 2)

	for i := 0; i < 5; i++ {
		require.NoError(t, worker.HandleEvent(likeEvent(t, reviewID, time.Now())))
		time.Sleep(50 * time.Millisecond)
	}

	assert.Equal(t, 1, worker.GetPendingCount())

	time.Sleep(debounceWindow + 200*time.Millisecond)

	assert.Equal(t, 0, worker.GetPendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileWorker_IgnoresStaleEvents(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()
	now := time.Now()

	expectReconcile(mock, reviewID, 0, 1)

	require.NoError(t, worker.HandleEvent(likeEvent(t, reviewID, now)))
	require.NoError(t, worker.HandleEvent(likeEvent(t, reviewID, now.Add(-time.Minute))))

	worker.mu.Lock()
	pending := worker.pendingUpdates[reviewID]
	worker.mu.Unlock()
	require.NotNil(t, pending)
	assert.True(t, pending.timestamp.Equal(now))

	time.Sleep(debounceWindow + 100*time.Millisecond)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileWorker_MultipleReviews(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	first, second := uuid.New(), uuid.New()
	expectReconcile(mock, first, 0, 1)
	expectReconcile(mock, second, 2, 2)

	// Staggered so the two debounce windows close one after the other
	require.NoError(t, worker.HandleEvent(likeEvent(t, first, time.Now())))
	time.Sleep(debounceWindow / 2)
	require.NoError(t, worker.HandleEvent(likeEvent(t, second, time.Now())))
	assert.Equal(t, 2, worker.GetPendingCount())

	time.Sleep(debounceWindow + 200*time.Millisecond)

	assert.Equal(t, 0, worker.GetPendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileWorker_RetryLogic(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()

	// Two failures then success
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(lockReviewQuery).WithArgs(reviewID).WillReturnError(assert.AnError)
		mock.ExpectRollback()
	}
	expectReconcile(mock, reviewID, 0, 1)

	require.NoError(t, worker.HandleEvent(likeEvent(t, reviewID, time.Now())))

	time.Sleep(debounceWindow + 1*time.Second)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileWorker_ShutdownCancelsPendingUpdates(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	require.NoError(t, worker.HandleEvent(likeEvent(t, uuid.New(), time.Now())))
	assert.Equal(t, 1, worker.GetPendingCount())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := worker.Shutdown(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 0, worker.GetPendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileWorker_ShutdownAbortsInFlightReconcile(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockReviewQuery).
		WithArgs(reviewID).
		WillDelayFor(10 * time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(1))

	require.NoError(t, worker.HandleEvent(likeEvent(t, reviewID, time.Now())))

	time.Sleep(debounceWindow + 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := worker.Shutdown(ctx)

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestReconcileWorker_IgnoresEventsAfterShutdown(t *testing.T) {
	worker, _, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	require.NoError(t, worker.Shutdown(context.Background()))

	require.NoError(t, worker.HandleEvent(likeEvent(t, uuid.New(), time.Now())))
	assert.Equal(t, 0, worker.GetPendingCount())
}

func TestReconcileWorker_Sweep(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	drifted := uuid.New()
	mock.ExpectQuery(driftedQuery).
		WithArgs(uuid.Nil, sweepBatchSize).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(drifted))
	expectReconcile(mock, drifted, 3, 1)

	worker.Sweep(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileWorker_RunSweepStopsOnCancel(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	mock.ExpectQuery(driftedQuery).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.RunSweep(ctx, 50*time.Millisecond)
		close(done)
	}()

	time.Sleep(80 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunSweep did not stop")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

// fakeFetcher hands out one batch, then times out until the test cancels
type fakeFetcher struct {
	mu      sync.Mutex
	batches [][]*nats.Msg
	cancel  context.CancelFunc
}

func (f *fakeFetcher) Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.batches) == 0 {
		f.cancel()
		return nil, nats.ErrTimeout
	}

	next := f.batches[0]
	f.batches = f.batches[1:]
	return next, nil
}

func TestReconcileWorker_Run(t *testing.T) {
	worker, mock, sqlxDB := setupTestWorker(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()

	expectReconcile(mock, reviewID, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{
		batches: [][]*nats.Msg{{
			{Subject: domain.LikeEventsSubject, Data: likeEvent(t, reviewID, time.Now())},
			{Subject: domain.LikeEventsSubject, Data: []byte(`{broken`)},
		}},
		cancel: cancel,
	}

	worker.Run(ctx, fetcher)

	assert.Equal(t, 1, worker.GetPendingCount())

	time.Sleep(debounceWindow + 100*time.Millisecond)
	assert.NoError(t, mock.ExpectationsWereMet())
}
