package like

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	"github.com/Pesokrava/park_reviewer/internal/pkg/observability"
)

// TxRunner runs fn inside one database transaction
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CacheInvalidator drops cached park review lists
type CacheInvalidator interface {
	InvalidateParkReviews(ctx context.Context, parkID uuid.UUID) error
}

// Service toggles likes and keeps the denormalized likes_count in step with the like rows
type Service struct {
	reviews   domain.ReviewRepository
	likes     domain.LikeRepository
	tx        TxRunner
	cache     CacheInvalidator
	publisher domain.EventPublisher
	metrics   *observability.Metrics
	logger    *logger.Logger
}

// NewService creates a new like service
func NewService(
	reviews domain.ReviewRepository,
	likes domain.LikeRepository,
	tx TxRunner,
	cache CacheInvalidator,
	publisher domain.EventPublisher,
	metrics *observability.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		reviews:   reviews,
		likes:     likes,
		tx:        tx,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
	}
}

// Toggle flips the like state of (reviewID, likerID) and returns the new state.
// The row change and the counter change commit together; a counter step happens
// only when this call actually inserted or removed the row.
func (s *Service) Toggle(ctx context.Context, reviewID, likerID uuid.UUID) (domain.LikeState, error) {
	if likerID == uuid.Nil {
		return domain.NotLiked, domain.ErrUnauthenticated
	}

	ctx, span := observability.StartSpan(ctx, "like.Toggle")
	defer span.End()

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		observability.RecordError(span, err)
		return domain.NotLiked, err
	}

	var state domain.LikeState
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		exists, err := s.likes.Exists(ctx, reviewID, likerID)
		if err != nil {
			return err
		}

		if !exists {
			inserted, err := s.likes.Insert(ctx, reviewID, likerID)
			if err != nil {
				return err
			}
			if inserted {
				if err := s.reviews.AdjustLikes(ctx, reviewID, 1); err != nil {
					return err
				}
			}
			state = domain.Liked
			return nil
		}

		deleted, err := s.likes.Delete(ctx, reviewID, likerID)
		if err != nil {
			return err
		}
		if deleted {
			if err := s.reviews.AdjustLikes(ctx, reviewID, -1); err != nil {
				return err
			}
		}
		state = domain.NotLiked
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		s.logger.FromContext(ctx).Errorf(err, "Failed to toggle like on review %s", reviewID)
		return domain.NotLiked, err
	}

	if err := s.cache.InvalidateParkReviews(ctx, review.ParkID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for park %s: %v", review.ParkID, err)
	}

	eventType := domain.EventLikeRemoved
	if state == domain.Liked {
		eventType = domain.EventLikeAdded
	}
	s.publishEvent(eventType, reviewID, likerID)
	s.metrics.RecordToggle(ctx, state.String())

	s.logger.FromContext(ctx).WithFields(map[string]interface{}{
		"review_id": reviewID,
		"liker_id":  likerID,
		"state":     state.String(),
	}).Debug("Like toggled")

	return state, nil
}

// Status reports whether likerID currently likes the review
func (s *Service) Status(ctx context.Context, reviewID, likerID uuid.UUID) (domain.LikeState, error) {
	if likerID == uuid.Nil {
		return domain.NotLiked, domain.ErrUnauthenticated
	}

	if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
		return domain.NotLiked, err
	}

	exists, err := s.likes.Exists(ctx, reviewID, likerID)
	if err != nil {
		return domain.NotLiked, err
	}
	return domain.LikeState(exists), nil
}

// publishEvent publishes a like event (non-blocking)
func (s *Service) publishEvent(eventType string, reviewID, likerID uuid.UUID) {
	event := domain.LikeEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		ReviewID:  reviewID,
		LikerID:   likerID,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal like event for review %s", reviewID)
		return
	}

	go func() {
		if err := s.publisher.Publish(context.Background(), domain.LikeEventsSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish like event for review %s", reviewID)
		}
	}()
}
