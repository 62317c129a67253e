package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReviewImage is an image attached to a review
type ReviewImage struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ReviewID    uuid.UUID `json:"review_id" db:"review_id"`
	URL         string    `json:"url" db:"image_url"`
	StoragePath string    `json:"-" db:"storage_path"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ImageUpload is one image submitted for attachment
type ImageUpload struct {
	Data        []byte
	ContentType string
	Size        int64
}

// ImageRepository defines the interface for review image data access
type ImageRepository interface {
	// CreateBatch inserts all images in order
	CreateBatch(ctx context.Context, images []*ReviewImage) error

	// CountByReview returns the number of live images on a review
	CountByReview(ctx context.Context, reviewID uuid.UUID) (int, error)

	// ListByReviews returns the images of the given reviews, oldest first
	ListByReviews(ctx context.Context, reviewIDs []uuid.UUID) ([]*ReviewImage, error)

	// GetByURL finds an image of a review by its public reference
	GetByURL(ctx context.Context, reviewID uuid.UUID, url string) (*ReviewImage, error)

	// Delete removes one image row
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByReview removes all image rows of a review and returns their storage paths
	DeleteByReview(ctx context.Context, reviewID uuid.UUID) ([]string, error)
}
