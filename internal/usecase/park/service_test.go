package park

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

// MockParkRepository is a mock implementation of domain.ParkRepository
type MockParkRepository struct {
	mock.Mock
}

func (m *MockParkRepository) Upsert(ctx context.Context, park *domain.Park) error {
	args := m.Called(ctx, park)
	return args.Error(0)
}

func (m *MockParkRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Park, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Park), args.Error(1)
}

func (m *MockParkRepository) List(ctx context.Context, limit, offset int) ([]*domain.Park, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Park), args.Error(1)
}

func (m *MockParkRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestService_Register_Success(t *testing.T) {
	mockRepo := new(MockParkRepository)
	service := NewService(mockRepo, logger.New("test"))

	park := &domain.Park{PlaceID: " ChIJ123 ", Name: "Central Park"}
	mockRepo.On("Upsert", mock.Anything, park).Return(nil)

	err := service.Register(context.Background(), park)

	assert.NoError(t, err)
	assert.Equal(t, "ChIJ123", park.PlaceID)
	mockRepo.AssertExpectations(t)
}

func TestService_Register_InvalidInput(t *testing.T) {
	mockRepo := new(MockParkRepository)
	service := NewService(mockRepo, logger.New("test"))

	err := service.Register(context.Background(), &domain.Park{PlaceID: "", Name: "Nameless"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	mockRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestService_GetByID_NotFound(t *testing.T) {
	mockRepo := new(MockParkRepository)
	service := NewService(mockRepo, logger.New("test"))

	id := uuid.New()
	mockRepo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	park, err := service.GetByID(context.Background(), id)

	assert.Nil(t, park)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_List_ClampsPagination(t *testing.T) {
	mockRepo := new(MockParkRepository)
	service := NewService(mockRepo, logger.New("test"))

	parks := []*domain.Park{{ID: uuid.New(), Name: "Alpha"}}
	mockRepo.On("List", mock.Anything, 20, 0).Return(parks, nil)
	mockRepo.On("Count", mock.Anything).Return(1, nil)

	got, total, err := service.List(context.Background(), 500, -3)

	assert.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, parks, got)
	mockRepo.AssertExpectations(t)
}
