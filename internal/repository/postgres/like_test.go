package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/park_reviewer/internal/domain"
)

func TestLikeRepository_Insert(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)
	reviewID, likerID := uuid.New(), uuid.New()

	mock.ExpectExec("INSERT INTO review_likes (.+) ON CONFLICT \\(review_id, liker_id\\) DO NOTHING").
		WithArgs(reviewID, likerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.Insert(context.Background(), reviewID, likerID)

	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_Insert_DuplicateIsAbsorbed(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectExec("INSERT INTO review_likes").
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Insert(context.Background(), uuid.New(), uuid.New())

	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestLikeRepository_Insert_ReviewGone(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectExec("INSERT INTO review_likes").
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := repo.Insert(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLikeRepository_Exists(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)
	reviewID, likerID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(reviewID, likerID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), reviewID, likerID)

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLikeRepository_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectExec("DELETE FROM review_likes WHERE review_id = \\$1 AND liker_id = \\$2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), uuid.New(), uuid.New())

	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestLikeRepository_DeleteByReview(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)
	reviewID := uuid.New()

	mock.ExpectExec("DELETE FROM review_likes WHERE review_id = \\$1").
		WithArgs(reviewID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByReview(context.Background(), reviewID)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
