package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event subjects on the REVIEWS stream
const (
	ReviewEventsSubject = "reviews.events"
	LikeEventsSubject   = "likes.events"
)

// Review event types
const (
	EventReviewCreated = "review.created"
	EventReviewUpdated = "review.updated"
	EventReviewDeleted = "review.deleted"
	EventImagesAdded   = "review.images_added"
	EventImageRemoved  = "review.image_removed"
)

// Like event types
const (
	EventLikeAdded   = "like.added"
	EventLikeRemoved = "like.removed"
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ReviewEvent represents a change to a review
type ReviewEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ReviewID  uuid.UUID `json:"review_id"`
	ParkID    uuid.UUID `json:"park_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Review    *Review   `json:"review,omitempty"`
}

// LikeEvent represents a like state transition
type LikeEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ReviewID  uuid.UUID `json:"review_id"`
	LikerID   uuid.UUID `json:"liker_id"`
}
