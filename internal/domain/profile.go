package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Profile is the internal user record behind an external identity provider subject
type Profile struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ExternalSubject string    `json:"-" db:"external_subject"`
	DisplayName     string    `json:"display_name" db:"display_name" validate:"required,min=1,max=100"`
	AvatarURL       *string   `json:"avatar_url,omitempty" db:"avatar_url" validate:"omitempty,url"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	// Create inserts a profile; ErrAlreadyExists if the subject already has one
	Create(ctx context.Context, profile *Profile) error

	// GetByID retrieves a profile by internal ID
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// GetIDBySubject maps an external subject to the internal profile ID
	GetIDBySubject(ctx context.Context, subject string) (uuid.UUID, error)
}
