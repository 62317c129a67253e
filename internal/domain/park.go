package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Park represents a park known to the system, keyed externally by its place ID
type Park struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PlaceID   string    `json:"place_id" db:"place_id" validate:"required,min=1,max=255"`
	Name      string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Address   *string   `json:"address,omitempty" db:"address" validate:"omitempty,max=500"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ParkRepository defines the interface for park data access
type ParkRepository interface {
	// Upsert creates a park or refreshes name/address of the park with the same place ID
	Upsert(ctx context.Context, park *Park) error

	// GetByID retrieves a park by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Park, error)

	// List retrieves a paginated list of parks
	List(ctx context.Context, limit, offset int) ([]*Park, error)

	// Count returns the total number of parks
	Count(ctx context.Context) (int, error)
}
