package cascade

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

// ObjectRemover deletes stored objects by reference
type ObjectRemover interface {
	Delete(ctx context.Context, reference string) error
}

// Coordinator removes a review and everything hanging off it.
// Children go first and the review row last, each step its own idempotent
// statement, so an interrupted delete leaves the review reachable and a retry finishes it.
type Coordinator struct {
	images  domain.ImageRepository
	likes   domain.LikeRepository
	reviews domain.ReviewRepository
	objects ObjectRemover
	logger  *logger.Logger
}

// NewCoordinator creates a new cascade deletion coordinator
func NewCoordinator(
	images domain.ImageRepository,
	likes domain.LikeRepository,
	reviews domain.ReviewRepository,
	objects ObjectRemover,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		images:  images,
		likes:   likes,
		reviews: reviews,
		objects: objects,
		logger:  log,
	}
}

// Result summarizes what a DeleteAll call removed
type Result struct {
	ImagesDeleted int
	LikesDeleted  int64
	ReviewDeleted bool
}

// DeleteAll removes image rows, then like rows, then the review row, then purges stored objects.
// Deleting an already-empty child set or an already-deleted review is not an error.
func (c *Coordinator) DeleteAll(ctx context.Context, reviewID uuid.UUID) (Result, error) {
	var res Result
	log := c.logger.FromContext(ctx).With("review_id", reviewID)

	paths, err := c.images.DeleteByReview(ctx, reviewID)
	if err != nil {
		return res, fmt.Errorf("delete review images: %w", err)
	}
	res.ImagesDeleted = len(paths)

	res.LikesDeleted, err = c.likes.DeleteByReview(ctx, reviewID)
	if err != nil {
		return res, fmt.Errorf("delete review likes: %w", err)
	}

	res.ReviewDeleted, err = c.reviews.Delete(ctx, reviewID)
	if err != nil {
		return res, fmt.Errorf("delete review: %w", err)
	}

	// Rows are gone; an object left behind here is an orphan, never a dangling reference.
	purgeCtx := context.WithoutCancel(ctx)
	for _, path := range paths {
		if err := c.objects.Delete(purgeCtx, path); err != nil {
			log.Warnf("Failed to purge stored image %s: %v", path, err)
		}
	}

	log.WithFields(map[string]interface{}{
		"images_deleted": res.ImagesDeleted,
		"likes_deleted":  res.LikesDeleted,
		"review_deleted": res.ReviewDeleted,
	}).Info("Review cascade completed")

	return res, nil
}
