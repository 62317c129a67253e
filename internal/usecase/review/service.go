package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	pkgvalidator "github.com/Pesokrava/park_reviewer/internal/pkg/validator"
	"github.com/Pesokrava/park_reviewer/internal/usecase/cascade"
)

// ImageManager attaches and detaches review images
type ImageManager interface {
	Check(uploads []domain.ImageUpload) error
	Attach(ctx context.Context, reviewID, requesterID uuid.UUID, uploads []domain.ImageUpload) ([]*domain.ReviewImage, error)
	Detach(ctx context.Context, reviewID, requesterID uuid.UUID, url string) error
}

// Cascader removes a review together with its images and likes
type Cascader interface {
	DeleteAll(ctx context.Context, reviewID uuid.UUID) (cascade.Result, error)
}

// ReviewCache caches the review list of a park
type ReviewCache interface {
	GetParkReviews(ctx context.Context, parkID uuid.UUID) ([]*domain.ReviewDetails, error)
	SetParkReviews(ctx context.Context, parkID uuid.UUID, reviews []*domain.ReviewDetails) error
	InvalidateParkReviews(ctx context.Context, parkID uuid.UUID) error
}

// CreateInput holds the fields of a new review
type CreateInput struct {
	ParkID  uuid.UUID `json:"park_id" validate:"required"`
	Content string    `json:"content" validate:"notblank,maxrunes=1000"`
	Images  []domain.ImageUpload
}

// UpdateInput holds the changes to an existing review. A nil Content keeps the current text.
type UpdateInput struct {
	Content        *string
	ImagesToAdd    []domain.ImageUpload
	ImagesToRemove []string
}

type contentInput struct {
	Content string `json:"content" validate:"notblank,maxrunes=1000"`
}

// Service handles review business logic with caching and event publishing
type Service struct {
	repo      domain.ReviewRepository
	images    domain.ImageRepository
	manager   ImageManager
	cascade   Cascader
	cache     ReviewCache
	publisher domain.EventPublisher
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewService creates a new review service
func NewService(
	repo domain.ReviewRepository,
	images domain.ImageRepository,
	manager ImageManager,
	cascade Cascader,
	cache ReviewCache,
	publisher domain.EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		images:    images,
		manager:   manager,
		cascade:   cascade,
		cache:     cache,
		publisher: publisher,
		validate:  pkgvalidator.Get(),
		logger:    log,
	}
}

func (s *Service) validationError(err error) error {
	field, msg := pkgvalidator.Describe(err)
	return domain.NewValidationError(field, msg)
}

// Create creates a review and attaches its images. If attaching fails the
// review is removed again and the error is returned.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, input CreateInput) (*domain.ReviewDetails, error) {
	if authorID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	if err := s.validate.Struct(input); err != nil {
		return nil, s.validationError(err)
	}

	if len(input.Images) > domain.MaxImagesPerReview {
		return nil, domain.NewImageError(domain.ErrTooManyImages,
			fmt.Sprintf("a review can have at most %d images", domain.MaxImagesPerReview))
	}
	if err := s.manager.Check(input.Images); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ParkID:   input.ParkID,
		AuthorID: authorID,
		Content:  input.Content,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		s.logger.FromContext(ctx).Error("Failed to create review", err)
		return nil, err
	}

	images := []*domain.ReviewImage{}
	if len(input.Images) > 0 {
		attached, err := s.manager.Attach(ctx, review.ID, authorID, input.Images)
		if err != nil {
			if _, cerr := s.cascade.DeleteAll(context.WithoutCancel(ctx), review.ID); cerr != nil {
				s.logger.FromContext(ctx).Errorf(cerr, "Failed to roll back review %s after image failure", review.ID)
			}
			return nil, err
		}
		images = attached
	}

	s.invalidate(ctx, review.ParkID)
	s.publishEvent(domain.EventReviewCreated, review)

	s.logger.FromContext(ctx).WithFields(map[string]interface{}{
		"review_id": review.ID,
		"park_id":   review.ParkID,
		"images":    len(images),
	}).Info("Review created successfully")

	return &domain.ReviewDetails{Review: *review, Images: images}, nil
}

// GetByID retrieves a review with its images
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewDetails, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Review not found: %s", id)
		} else {
			s.logger.FromContext(ctx).Error("Failed to get review", err)
		}
		return nil, err
	}

	images, err := s.images.ListByReviews(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []*domain.ReviewImage{}
	}

	return &domain.ReviewDetails{Review: *review, Images: images}, nil
}

// ListByAuthor retrieves an author's reviews, newest first
func (s *Service) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Review, error) {
	reviews, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		s.logger.FromContext(ctx).Error("Failed to list reviews by author", err)
		return nil, err
	}
	return reviews, nil
}

// ListByPark retrieves a park's reviews with images and author fields, served from cache when possible
func (s *Service) ListByPark(ctx context.Context, parkID uuid.UUID) ([]*domain.ReviewDetails, error) {
	reviews, err := s.cache.GetParkReviews(ctx, parkID)
	if err == nil {
		s.logger.Debugf("Cache hit for park %s reviews", parkID)
		return reviews, nil
	}

	s.logger.Debugf("Cache miss for park %s reviews", parkID)
	reviews, err = s.repo.ListByPark(ctx, parkID)
	if err != nil {
		s.logger.FromContext(ctx).Error("Failed to list reviews by park", err)
		return nil, err
	}

	if len(reviews) > 0 {
		ids := make([]uuid.UUID, len(reviews))
		byID := make(map[uuid.UUID]*domain.ReviewDetails, len(reviews))
		for i, r := range reviews {
			ids[i] = r.ID
			byID[r.ID] = r
			if r.Images == nil {
				r.Images = []*domain.ReviewImage{}
			}
		}

		images, err := s.images.ListByReviews(ctx, ids)
		if err != nil {
			s.logger.FromContext(ctx).Error("Failed to list review images", err)
			return nil, err
		}
		for _, img := range images {
			if r, ok := byID[img.ReviewID]; ok {
				r.Images = append(r.Images, img)
			}
		}
	}

	if err := s.cache.SetParkReviews(ctx, parkID, reviews); err != nil {
		s.logger.Warnf("Failed to cache reviews for park %s: %v", parkID, err)
	}

	return reviews, nil
}

// Update changes a review's content and images. Removals run before additions
// so a review that already has the maximum number of images can swap some of them.
func (s *Service) Update(ctx context.Context, reviewID, requesterID uuid.UUID, input UpdateInput) (*domain.ReviewDetails, error) {
	if requesterID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	existing, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != requesterID {
		return nil, domain.ErrForbidden
	}

	if input.Content != nil {
		if err := s.validate.Struct(contentInput{Content: *input.Content}); err != nil {
			return nil, s.validationError(err)
		}
	}

	var removals []string
	if len(input.ImagesToAdd) > 0 || len(input.ImagesToRemove) > 0 {
		removals, err = s.checkImageChanges(ctx, reviewID, input)
		if err != nil {
			return nil, err
		}
	}

	review := existing
	if input.Content != nil {
		review, err = s.repo.UpdateContent(ctx, reviewID, *input.Content)
		if err != nil {
			s.logger.FromContext(ctx).Error("Failed to update review", err)
			return nil, err
		}
	}

	for _, url := range removals {
		if err := s.manager.Detach(ctx, reviewID, requesterID, url); err != nil {
			return nil, err
		}
	}
	if len(input.ImagesToAdd) > 0 {
		if _, err := s.manager.Attach(ctx, reviewID, requesterID, input.ImagesToAdd); err != nil {
			return nil, err
		}
	}

	s.invalidate(ctx, review.ParkID)
	s.publishEvent(domain.EventReviewUpdated, review)

	s.logger.FromContext(ctx).WithFields(map[string]interface{}{
		"review_id": review.ID,
		"park_id":   review.ParkID,
	}).Info("Review updated successfully")

	return s.GetByID(ctx, reviewID)
}

// checkImageChanges rejects an update whose image changes cannot all succeed, before anything is changed.
// It returns the removals with repeated URLs collapsed, in request order.
func (s *Service) checkImageChanges(ctx context.Context, reviewID uuid.UUID, input UpdateInput) ([]string, error) {
	if err := s.manager.Check(input.ImagesToAdd); err != nil {
		return nil, err
	}

	current, err := s.images.ListByReviews(ctx, []uuid.UUID{reviewID})
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(current))
	for _, img := range current {
		known[img.URL] = true
	}

	removals := make([]string, 0, len(input.ImagesToRemove))
	seen := make(map[string]bool, len(input.ImagesToRemove))
	for _, url := range input.ImagesToRemove {
		if !known[url] {
			return nil, fmt.Errorf("image %q: %w", url, domain.ErrNotFound)
		}
		if seen[url] {
			continue
		}
		seen[url] = true
		removals = append(removals, url)
	}

	if len(current)-len(removals)+len(input.ImagesToAdd) > domain.MaxImagesPerReview {
		return nil, domain.NewImageError(domain.ErrTooManyImages,
			fmt.Sprintf("a review can have at most %d images", domain.MaxImagesPerReview))
	}
	return removals, nil
}

// Delete removes a review with its images and likes
func (s *Service) Delete(ctx context.Context, reviewID, requesterID uuid.UUID) error {
	if requesterID == uuid.Nil {
		return domain.ErrUnauthenticated
	}

	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.AuthorID != requesterID {
		return domain.ErrForbidden
	}

	res, err := s.cascade.DeleteAll(ctx, reviewID)
	if err != nil {
		s.logger.FromContext(ctx).Error("Failed to delete review", err)
		return err
	}

	s.invalidate(ctx, review.ParkID)
	s.publishEvent(domain.EventReviewDeleted, review)

	s.logger.FromContext(ctx).WithFields(map[string]interface{}{
		"review_id":      reviewID,
		"park_id":        review.ParkID,
		"images_deleted": res.ImagesDeleted,
		"likes_deleted":  res.LikesDeleted,
	}).Info("Review deleted successfully")

	return nil
}

func (s *Service) invalidate(ctx context.Context, parkID uuid.UUID) {
	if err := s.cache.InvalidateParkReviews(ctx, parkID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for park %s: %v", parkID, err)
	}
}

// publishEvent publishes a review event (non-blocking)
func (s *Service) publishEvent(eventType string, review *domain.Review) {
	event := domain.ReviewEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		ReviewID:  review.ID,
		ParkID:    review.ParkID,
		AuthorID:  review.AuthorID,
	}
	if eventType != domain.EventReviewDeleted {
		event.Review = review
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %s", review.ID)
		return
	}

	go func() {
		if err := s.publisher.Publish(context.Background(), domain.ReviewEventsSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %s", review.ID)
		}
	}()
}
