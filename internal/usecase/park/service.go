package park

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	pkgvalidator "github.com/Pesokrava/park_reviewer/internal/pkg/validator"
)

// Service handles park registry logic
type Service struct {
	repo     domain.ParkRepository
	validate *validator.Validate
	logger   *logger.Logger
}

// NewService creates a new park service
func NewService(repo domain.ParkRepository, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: pkgvalidator.Get(),
		logger:   log,
	}
}

// Register creates the park with the given place ID or refreshes its name and address
func (s *Service) Register(ctx context.Context, park *domain.Park) error {
	park.PlaceID = strings.TrimSpace(park.PlaceID)
	park.Name = strings.TrimSpace(park.Name)

	if err := s.validate.Struct(park); err != nil {
		field, msg := pkgvalidator.Describe(err)
		return domain.NewValidationError(field, msg)
	}

	if err := s.repo.Upsert(ctx, park); err != nil {
		s.logger.FromContext(ctx).Error("Failed to register park", err)
		return err
	}

	s.logger.FromContext(ctx).WithFields(map[string]interface{}{
		"park_id":  park.ID,
		"place_id": park.PlaceID,
	}).Info("Park registered")

	return nil
}

// GetByID retrieves a park by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Park, error) {
	park, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Park not found: %s", id)
		} else {
			s.logger.FromContext(ctx).Error("Failed to get park", err)
		}
		return nil, err
	}

	return park, nil
}

// List retrieves a paginated list of parks and the total count
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Park, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	parks, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.FromContext(ctx).Error("Failed to list parks", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.FromContext(ctx).Error("Failed to count parks", err)
		return nil, 0, err
	}

	return parks, total, nil
}
