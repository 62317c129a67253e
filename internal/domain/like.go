package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LikeState is the like state of one (review, liker) pair
type LikeState bool

const (
	NotLiked LikeState = false
	Liked    LikeState = true
)

func (s LikeState) String() string {
	if s {
		return "liked"
	}
	return "not_liked"
}

// Like is one profile's like on one review
type Like struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ReviewID  uuid.UUID `json:"review_id" db:"review_id"`
	LikerID   uuid.UUID `json:"liker_id" db:"liker_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LikeRepository defines the interface for like data access
type LikeRepository interface {
	// Exists reports whether the liker currently likes the review
	Exists(ctx context.Context, reviewID, likerID uuid.UUID) (bool, error)

	// Insert adds a like; returns false when the pair already existed
	Insert(ctx context.Context, reviewID, likerID uuid.UUID) (bool, error)

	// Delete removes a like; returns false when there was nothing to remove
	Delete(ctx context.Context, reviewID, likerID uuid.UUID) (bool, error)

	// DeleteByReview removes all likes of a review and returns how many were removed
	DeleteByReview(ctx context.Context, reviewID uuid.UUID) (int64, error)
}
