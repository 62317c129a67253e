package worker

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

const (
	lockReviewQuery  = `SELECT likes_count FROM reviews WHERE id = \$1 FOR UPDATE`
	countLikesQuery  = `SELECT COUNT\(\*\) FROM review_likes WHERE review_id = \$1`
	updateCountQuery = `UPDATE reviews SET likes_count = \$2 WHERE id = \$1`
	driftedQuery     = `SELECT r.id\s+FROM reviews r`
)

func setupReconciler(t *testing.T) (*Reconciler, sqlmock.Sqlmock, *sqlx.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewReconciler(sqlxDB, logger.New("test")), mock, sqlxDB
}

// expectReconcile sets up one locked reconcile of reviewID: lock, count, write only when they differ
func expectReconcile(mock sqlmock.Sqlmock, reviewID uuid.UUID, stored, actual int) {
	mock.ExpectBegin()
	mock.ExpectQuery(lockReviewQuery).
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(stored))
	mock.ExpectQuery(countLikesQuery).
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(actual))
	if stored != actual {
		mock.ExpectExec(updateCountQuery).
			WithArgs(reviewID, actual).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()
}

func TestReconciler_Reconcile_Corrected(t *testing.T) {
	reconciler, mock, sqlxDB := setupReconciler(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()
	expectReconcile(mock, reviewID, 5, 6)

	corrected, err := reconciler.Reconcile(context.Background(), reviewID)

	require.NoError(t, err)
	assert.True(t, corrected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconciler_Reconcile_AlreadyInSync(t *testing.T) {
	reconciler, mock, sqlxDB := setupReconciler(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()
	expectReconcile(mock, reviewID, 4, 4)

	corrected, err := reconciler.Reconcile(context.Background(), reviewID)

	require.NoError(t, err)
	assert.False(t, corrected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconciler_Reconcile_LocksBeforeCounting(t *testing.T) {
	reconciler, mock, sqlxDB := setupReconciler(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()

	// Expectations match in order, so counting before the lock fails here
	mock.ExpectBegin()
	mock.ExpectQuery(lockReviewQuery).
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(5))
	mock.ExpectQuery(countLikesQuery).
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectExec(updateCountQuery).
		WithArgs(reviewID, 6).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	corrected, err := reconciler.Reconcile(context.Background(), reviewID)

	require.NoError(t, err)
	assert.True(t, corrected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconciler_Reconcile_ReviewGone(t *testing.T) {
	reconciler, mock, sqlxDB := setupReconciler(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockReviewQuery).
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}))
	mock.ExpectCommit()

	corrected, err := reconciler.Reconcile(context.Background(), reviewID)

	require.NoError(t, err)
	assert.False(t, corrected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconciler_Reconcile_CountFailureRollsBack(t *testing.T) {
	reconciler, mock, sqlxDB := setupReconciler(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockReviewQuery).
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(1))
	mock.ExpectQuery(countLikesQuery).
		WithArgs(reviewID).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := reconciler.Reconcile(context.Background(), reviewID)

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconciler_Reconcile_ContextTimeout(t *testing.T) {
	reconciler, mock, sqlxDB := setupReconciler(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockReviewQuery).
		WithArgs(reviewID).
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := reconciler.Reconcile(ctx, reviewID)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reconcile likes count")
}

func TestReconciler_ReconcileAll(t *testing.T) {
	reconciler, mock, sqlxDB := setupReconciler(t)
	defer sqlxDB.Close()

	first, second := uuid.New(), uuid.New()

	mock.ExpectQuery(driftedQuery).
		WithArgs(uuid.Nil, sweepBatchSize).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(first).AddRow(second))
	expectReconcile(mock, first, 3, 2)
	// second was fixed by a toggle between the scan and its lock
	expectReconcile(mock, second, 1, 1)

	corrected, err := reconciler.ReconcileAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), corrected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconciler_ReconcileAll_Error(t *testing.T) {
	reconciler, mock, sqlxDB := setupReconciler(t)
	defer sqlxDB.Close()

	mock.ExpectQuery(driftedQuery).
		WillReturnError(assert.AnError)

	_, err := reconciler.ReconcileAll(context.Background())

	assert.ErrorIs(t, err, assert.AnError)
}

func TestReconciler_GetLikesCount(t *testing.T) {
	reconciler, mock, sqlxDB := setupReconciler(t)
	defer sqlxDB.Close()

	reviewID := uuid.New()

	mock.ExpectQuery("SELECT likes_count FROM reviews").
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows([]string{"likes_count"}).AddRow(7))

	count, err := reconciler.GetLikesCount(context.Background(), reviewID)

	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
