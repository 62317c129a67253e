package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxReviewContentLength is the maximum review length in characters
	MaxReviewContentLength = 1000

	// MaxImagesPerReview is the maximum number of live images on one review
	MaxImagesPerReview = 5

	// MaxImageSize is the maximum size of one stored image in bytes
	MaxImageSize = 5 << 20
)

// Review represents a park review in the system
type Review struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ParkID     uuid.UUID `json:"park_id" db:"park_id"`
	AuthorID   uuid.UUID `json:"author_id" db:"author_id"`
	Content    string    `json:"content" db:"content"`
	LikesCount int       `json:"likes_count" db:"likes_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ReviewAuthor holds the author display fields shown next to a review
type ReviewAuthor struct {
	DisplayName string  `json:"display_name" db:"author_display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty" db:"author_avatar_url"`
}

// ReviewDetails is a review with its images and author display fields
type ReviewDetails struct {
	Review
	Author *ReviewAuthor  `json:"author,omitempty" db:"-"`
	Images []*ReviewImage `json:"images" db:"-"`
}

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	// Create inserts a review; ErrNotFound if the park or author does not exist
	Create(ctx context.Context, review *Review) error

	// GetByID retrieves a review by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// LockForUpdate takes a row lock on the review inside the current transaction
	LockForUpdate(ctx context.Context, id uuid.UUID) error

	// ListByAuthor returns an author's reviews, newest first
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*Review, error)

	// ListByPark returns a park's reviews with author display fields, newest first
	ListByPark(ctx context.Context, parkID uuid.UUID) ([]*ReviewDetails, error)

	// UpdateContent sets content and bumps updated_at without touching likes_count
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*Review, error)

	// AdjustLikes atomically adds delta to likes_count, flooring at zero
	AdjustLikes(ctx context.Context, id uuid.UUID, delta int) error

	// Delete removes the review row; returns false when no row was removed
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
