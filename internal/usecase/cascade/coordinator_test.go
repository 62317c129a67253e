package cascade

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

// stepRecorder collects the order in which cascade steps run
type stepRecorder struct {
	steps []string
}

type MockImageRepository struct {
	mock.Mock
	rec *stepRecorder
}

func (m *MockImageRepository) CreateBatch(ctx context.Context, images []*domain.ReviewImage) error {
	return m.Called(ctx, images).Error(0)
}

func (m *MockImageRepository) CountByReview(ctx context.Context, reviewID uuid.UUID) (int, error) {
	args := m.Called(ctx, reviewID)
	return args.Int(0), args.Error(1)
}

func (m *MockImageRepository) ListByReviews(ctx context.Context, reviewIDs []uuid.UUID) ([]*domain.ReviewImage, error) {
	args := m.Called(ctx, reviewIDs)
	return args.Get(0).([]*domain.ReviewImage), args.Error(1)
}

func (m *MockImageRepository) GetByURL(ctx context.Context, reviewID uuid.UUID, url string) (*domain.ReviewImage, error) {
	args := m.Called(ctx, reviewID, url)
	return args.Get(0).(*domain.ReviewImage), args.Error(1)
}

func (m *MockImageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockImageRepository) DeleteByReview(ctx context.Context, reviewID uuid.UUID) ([]string, error) {
	m.rec.steps = append(m.rec.steps, "images")
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockLikeRepository struct {
	mock.Mock
	rec *stepRecorder
}

func (m *MockLikeRepository) Exists(ctx context.Context, reviewID, likerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, reviewID, likerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeRepository) Insert(ctx context.Context, reviewID, likerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, reviewID, likerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeRepository) Delete(ctx context.Context, reviewID, likerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, reviewID, likerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLikeRepository) DeleteByReview(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	m.rec.steps = append(m.rec.steps, "likes")
	args := m.Called(ctx, reviewID)
	return args.Get(0).(int64), args.Error(1)
}

type MockReviewDeleter struct {
	domain.ReviewRepository
	mock.Mock
	rec *stepRecorder
}

func (m *MockReviewDeleter) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	m.rec.steps = append(m.rec.steps, "review")
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockObjectRemover struct {
	mock.Mock
	rec *stepRecorder
}

func (m *MockObjectRemover) Delete(ctx context.Context, reference string) error {
	m.rec.steps = append(m.rec.steps, "object")
	return m.Called(ctx, reference).Error(0)
}

type fixture struct {
	images  *MockImageRepository
	likes   *MockLikeRepository
	reviews *MockReviewDeleter
	objects *MockObjectRemover
	rec     *stepRecorder
	coord   *Coordinator
}

func newFixture() *fixture {
	rec := &stepRecorder{}
	f := &fixture{
		images:  &MockImageRepository{rec: rec},
		likes:   &MockLikeRepository{rec: rec},
		reviews: &MockReviewDeleter{rec: rec},
		objects: &MockObjectRemover{rec: rec},
		rec:     rec,
	}
	f.coord = NewCoordinator(f.images, f.likes, f.reviews, f.objects, logger.New("test"))
	return f
}

func TestDeleteAll_Order(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	f.images.On("DeleteByReview", mock.Anything, id).Return([]string{"reviews/a.jpg"}, nil)
	f.likes.On("DeleteByReview", mock.Anything, id).Return(int64(1), nil)
	f.reviews.On("Delete", mock.Anything, id).Return(true, nil)
	f.objects.On("Delete", mock.Anything, "reviews/a.jpg").Return(nil)

	res, err := f.coord.DeleteAll(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, []string{"images", "likes", "review", "object"}, f.rec.steps)
	assert.Equal(t, Result{ImagesDeleted: 1, LikesDeleted: 1, ReviewDeleted: true}, res)
}

func TestDeleteAll_StopsBeforeReviewWhenLikesFail(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	f.images.On("DeleteByReview", mock.Anything, id).Return([]string{"reviews/a.jpg"}, nil)
	f.likes.On("DeleteByReview", mock.Anything, id).Return(int64(0), domain.ErrUnavailable)

	_, err := f.coord.DeleteAll(context.Background(), id)

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, []string{"images", "likes"}, f.rec.steps)
	f.reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	f.objects.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteAll_RetryAfterPartialRunIsNoError(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	// children already removed by an interrupted run
	f.images.On("DeleteByReview", mock.Anything, id).Return([]string{}, nil)
	f.likes.On("DeleteByReview", mock.Anything, id).Return(int64(0), nil)
	f.reviews.On("Delete", mock.Anything, id).Return(true, nil)

	res, err := f.coord.DeleteAll(context.Background(), id)

	require.NoError(t, err)
	assert.True(t, res.ReviewDeleted)
	assert.Equal(t, 0, res.ImagesDeleted)
}

func TestDeleteAll_AlreadyDeletedReviewIsNoOp(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	f.images.On("DeleteByReview", mock.Anything, id).Return([]string{}, nil)
	f.likes.On("DeleteByReview", mock.Anything, id).Return(int64(0), nil)
	f.reviews.On("Delete", mock.Anything, id).Return(false, nil)

	res, err := f.coord.DeleteAll(context.Background(), id)

	require.NoError(t, err)
	assert.False(t, res.ReviewDeleted)
}

func TestDeleteAll_PurgeFailureIsTolerated(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	f.images.On("DeleteByReview", mock.Anything, id).Return([]string{"a", "b"}, nil)
	f.likes.On("DeleteByReview", mock.Anything, id).Return(int64(0), nil)
	f.reviews.On("Delete", mock.Anything, id).Return(true, nil)
	f.objects.On("Delete", mock.Anything, "a").Return(errors.New("s3 down"))
	f.objects.On("Delete", mock.Anything, "b").Return(nil)

	_, err := f.coord.DeleteAll(context.Background(), id)

	require.NoError(t, err)
	f.objects.AssertNumberOfCalls(t, "Delete", 2)
}
