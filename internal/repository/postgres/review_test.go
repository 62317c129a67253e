package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/park_reviewer/internal/domain"
)

var reviewCols = []string{"id", "park_id", "author_id", "content", "likes_count", "created_at", "updated_at"}

func TestReviewRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	review := &domain.Review{ParkID: uuid.New(), AuthorID: uuid.New(), Content: "Lovely ponds"}
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("INSERT INTO reviews").
		WithArgs(review.ParkID, review.AuthorID, review.Content).
		WillReturnRows(sqlmock.NewRows([]string{"id", "likes_count", "created_at", "updated_at"}).
			AddRow(id.String(), 0, now, now))

	err := repo.Create(context.Background(), review)

	require.NoError(t, err)
	assert.Equal(t, id, review.ID)
	assert.Equal(t, 0, review.LikesCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_MissingPark(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	mock.ExpectQuery("INSERT INTO reviews").
		WillReturnError(&pq.Error{Code: "23503"})

	err := repo.Create(context.Background(), &domain.Review{ParkID: uuid.New(), AuthorID: uuid.New(), Content: "x"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM reviews r WHERE r.id = \\$1").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	review, err := repo.GetByID(context.Background(), id)

	assert.Nil(t, review)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewRepository_ListByPark(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	parkID := uuid.New()
	r1, r2 := uuid.New(), uuid.New()
	author := uuid.New()
	avatar := "https://cdn.example.com/a.png"
	now := time.Now()

	cols := append(append([]string{}, reviewCols...), "author_display_name", "author_avatar_url")
	mock.ExpectQuery("SELECT (.+) FROM reviews r JOIN profiles p ON p.id = r.author_id WHERE r.park_id = \\$1 ORDER BY r.created_at DESC").
		WithArgs(parkID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(r1.String(), parkID.String(), author.String(), "newer", 2, now, now, "Ana", avatar).
			AddRow(r2.String(), parkID.String(), author.String(), "older", 0, now.Add(-time.Hour), now, "Ana", nil))

	reviews, err := repo.ListByPark(context.Background(), parkID)

	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, r1, reviews[0].ID)
	assert.Equal(t, "Ana", reviews[0].Author.DisplayName)
	assert.Equal(t, avatar, *reviews[0].Author.AvatarURL)
	assert.Nil(t, reviews[1].Author.AvatarURL)
	assert.NotNil(t, reviews[1].Images)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByAuthor_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	author := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM reviews r WHERE r.author_id = \\$1").
		WithArgs(author).
		WillReturnRows(sqlmock.NewRows(reviewCols))

	reviews, err := repo.ListByAuthor(context.Background(), author)

	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.NotNil(t, reviews)
}

func TestReviewRepository_UpdateContent_OnlyTouchesContent(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery("UPDATE reviews SET content = \\$1, updated_at = NOW\\(\\) WHERE id = \\$2").
		WithArgs("edited", id).
		WillReturnRows(sqlmock.NewRows(reviewCols).
			AddRow(id.String(), uuid.New().String(), uuid.New().String(), "edited", 7, now, now))

	review, err := repo.UpdateContent(context.Background(), id, "edited")

	require.NoError(t, err)
	assert.Equal(t, "edited", review.Content)
	assert.Equal(t, 7, review.LikesCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_AdjustLikes(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	id := uuid.New()
	mock.ExpectExec("UPDATE reviews SET likes_count = GREATEST\\(likes_count \\+ \\$1, 0\\)").
		WithArgs(-1, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.AdjustLikes(context.Background(), id, -1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_AdjustLikes_Missing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	mock.ExpectExec("UPDATE reviews SET likes_count").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AdjustLikes(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewRepository_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	id := uuid.New()
	mock.ExpectExec("DELETE FROM reviews").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM reviews").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestReviewRepository_LockForUpdate_Timeout(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReviewRepository(db)

	mock.ExpectQuery("SELECT id FROM reviews WHERE id = \\$1 FOR UPDATE").
		WillReturnError(context.DeadlineExceeded)

	err := repo.LockForUpdate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
